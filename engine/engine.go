package engine

import (
	"sync"
	"time"

	"github.com/brineflow/mqttengine/packets"
	"github.com/brineflow/mqttengine/reassemble"
	"github.com/brineflow/mqttengine/telemetry"
)

// fsmState is the engine's coarse connection state. It is kept separate
// from Registers because it governs which stimuli are even legal, rather
// than being data the pure handlers consult.
type fsmState int

const (
	fsmNotConnected fsmState = iota
	fsmConnecting
	fsmConnected
)

// Engine drives the client-side connection state machine: a single
// goroutine consumes a queue of stimuli (API commands, inbound transport
// bytes, timer ticks, and transport lifecycle events) and feeds each one
// through the pure handlers in handlers.go, then interprets the resulting
// Action by calling out to Transport, Scheduler and ClientSink.
//
// One goroutine serves one connection: the same single-consumer-loop shape
// a broker uses per accepted client, generalized here to "one loop per
// client engine" and driven off an explicit stimulus channel rather than
// blocking reads off a net.Conn directly, since the loop also has to accept
// API commands and timer ticks alongside transport bytes.
type Engine struct {
	scheduler Scheduler
	now       func() int64

	mu    sync.Mutex
	state fsmState
	regs  Registers

	pendingConnect *ConnectCommand

	stimuli chan stimulus
	done    chan struct{}
	closeWG sync.WaitGroup
}

// stimulus is the sum type of everything that can move the engine forward.
type stimulus interface{ isStimulus() }

type stimCommand struct{ cmd Command }
type stimBytes struct{ b []byte }
type stimTransportConnected struct{}
type stimTransportConnectFailed struct{}
type stimTransportClosed struct{}
type stimTimerTick struct{}

func (stimCommand) isStimulus()                {}
func (stimBytes) isStimulus()                  {}
func (stimTransportConnected) isStimulus()     {}
func (stimTransportConnectFailed) isStimulus() {}
func (stimTransportClosed) isStimulus()        {}
func (stimTimerTick) isStimulus()              {}

// New constructs an Engine in state NotConnected. now defaults to
// time.Now()'s millisecond form when nil, overridable so tests can drive
// keep-alive logic without real sleeps. stats may be nil.
func New(client ClientSink, scheduler Scheduler, stats *telemetry.Counters, now func() int64) *Engine {
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	e := &Engine{
		scheduler: scheduler,
		now:       now,
		state:     fsmNotConnected,
		regs:      NewRegisters(client, stats),
		stimuli:   make(chan stimulus, 64),
		done:      make(chan struct{}),
	}
	e.closeWG.Add(1)
	go e.loop()
	return e
}

// Stop terminates the engine's stimulus loop; stimuli still queued when it
// returns are not processed. It does not touch
// the transport; callers that want a clean protocol shutdown should issue a
// DisconnectCommand first.
func (e *Engine) Stop() {
	close(e.done)
	e.closeWG.Wait()
}

// State reports the engine's current coarse connection status.
func (e *Engine) State() ConnStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case fsmConnecting:
		return StatusConnecting
	case fsmConnected:
		return StatusConnected
	default:
		return StatusNotConnected
	}
}

// Submit enqueues an application command. It never blocks the caller on
// protocol I/O; the command is processed asynchronously on the engine's
// own goroutine.
func (e *Engine) Submit(cmd Command) {
	e.stimuli <- stimCommand{cmd: cmd}
}

// DeliverBytes feeds one inbound chunk from the transport. Transport
// implementations call this from their own read loop.
func (e *Engine) DeliverBytes(b []byte) {
	cp := append([]byte{}, b...)
	e.stimuli <- stimBytes{b: cp}
}

// NotifyConnected tells the engine the transport has finished establishing
// a connection.
func (e *Engine) NotifyConnected() { e.stimuli <- stimTransportConnected{} }

// NotifyConnectFailed tells the engine the transport could not connect.
func (e *Engine) NotifyConnectFailed() { e.stimuli <- stimTransportConnectFailed{} }

// NotifyClosed tells the engine the transport has terminated, whether by
// peer close, local abort, or error.
func (e *Engine) NotifyClosed() { e.stimuli <- stimTransportClosed{} }

// SetTransport installs the Transport collaborator to use for the next
// Connect command. It must be called before Submit(ConnectCommand{...}).
func (e *Engine) SetTransport(t Transport) {
	e.mu.Lock()
	e.regs = e.regs.setTransport(t)
	e.mu.Unlock()
}

func (e *Engine) loop() {
	defer e.closeWG.Done()
	for {
		select {
		case <-e.done:
			return
		case s := <-e.stimuli:
			e.handle(s)
		}
	}
}

func (e *Engine) handle(s stimulus) {
	e.mu.Lock()
	defer e.mu.Unlock()

	nowMs := e.now()

	switch st := s.(type) {
	case stimCommand:
		e.handleCommandLocked(st.cmd, nowMs)
	case stimBytes:
		e.handleBytesLocked(st.b, nowMs)
	case stimTransportConnected:
		e.handleTransportConnectedLocked(nowMs)
	case stimTransportConnectFailed:
		if e.state == fsmConnecting {
			e.transitionToNotConnectedLocked()
			e.regs.Client.ConnectionFailure(TransportNotReady)
		}
	case stimTransportClosed:
		e.handleTransportClosedLocked()
	case stimTimerTick:
		if e.state == fsmConnected {
			if e.regs.PingResponsePending {
				e.regs.Stats.AddPingTimeout()
			}
			regs, action := handleTimerTick(e.regs, nowMs)
			e.regs = regs
			e.interpretLocked(action)
		}
	}
}

func (e *Engine) handleCommandLocked(cmd Command, nowMs int64) {
	switch c := cmd.(type) {
	case ConnectCommand:
		e.handleConnectCommandLocked(c, nowMs)
	case StatusCommand:
		switch e.state {
		case fsmNotConnected:
			e.regs.Client.Disconnected()
		case fsmConnecting:
			e.regs.Client.Error(ErrNotConnected)
		case fsmConnected:
			e.regs.Client.Connected()
		}
	default:
		switch e.state {
		case fsmConnected:
			regs, action := handleConnectedCommand(e.regs, cmd, nowMs)
			e.regs = regs
			e.interpretLocked(action)
		default:
			e.regs.Client.Error(ErrNotConnected)
		}
	}
}

func (e *Engine) handleConnectCommandLocked(cmd ConnectCommand, nowMs int64) {
	if e.state != fsmNotConnected {
		e.regs.Client.Error(ErrNotConnected)
		return
	}
	if e.regs.Transport == nil {
		e.regs.Client.ConnectionFailure(TransportNotReady)
		return
	}
	cmdCopy := cmd
	e.pendingConnect = &cmdCopy
	e.state = fsmConnecting
	e.regs.Transport.Connect(cmd.RemoteAddr)
}

func (e *Engine) handleTransportConnectedLocked(nowMs int64) {
	if e.state != fsmConnecting {
		return
	}
	e.state = fsmConnected
	e.regs = e.regs.watchTransport()

	if e.pendingConnect != nil {
		regs, action := buildConnectSequence(e.regs, *e.pendingConnect, nowMs)
		e.regs = regs
		e.pendingConnect = nil
		e.interpretLocked(action)
	}
}

func (e *Engine) handleBytesLocked(b []byte, nowMs int64) {
	if e.state != fsmConnected {
		return
	}
	e.regs.Stats.AddBytesReceived(len(b))
	frames, next, err := reassemble.Feed(b, e.regs.ReadBuffer)
	e.regs = e.regs.setReadBuffer(next)
	if err != nil {
		e.regs.Client.Error(ErrProtocolError)
		if e.regs.Transport != nil {
			e.regs.Transport.Abort()
		}
		return
	}
	for _, f := range frames {
		regs, action := handleFrame(e.regs, f, nowMs)
		e.regs = regs
		e.interpretLocked(action)
	}
}

func (e *Engine) handleTransportClosedLocked() {
	if e.state != fsmConnected && e.state != fsmConnecting {
		return
	}
	e.transitionToNotConnectedLocked()
	e.regs.Client.Disconnected()
}

func (e *Engine) transitionToNotConnectedLocked() {
	if e.regs.TimerHandle != nil && e.scheduler != nil {
		e.scheduler.Cancel(e.regs.TimerHandle)
	}
	e.regs = e.regs.resetConnection()
	e.state = fsmNotConnected
	e.pendingConnect = nil
}

// interpretLocked performs the I/O an Action describes. Called with e.mu
// held; Transport/ClientSink/Scheduler implementations must not re-enter
// the Engine synchronously.
func (e *Engine) interpretLocked(a Action) {
	if a == nil {
		return
	}
	switch act := a.(type) {
	case Sequence:
		for _, sub := range act {
			e.interpretLocked(sub)
		}
	case SendToNetwork:
		if e.regs.Transport != nil {
			b, err := packets.Encode(act.Frame)
			if err == nil {
				e.regs.Transport.Write(b)
				e.regs = e.regs.setLastSentAt(e.now())
				e.regs.Stats.AddBytesSent(len(b))
				if act.Frame.Header().Type == packets.Pingreq {
					e.regs.Stats.AddPingSent()
				}
			}
		}
	case SendToClient:
		act.deliver(e.regs.Client)
	case SetKeepAlive:
		e.regs = e.regs.setKeepAlive(act.Ms)
	case StartPingRespTimer:
		if e.regs.TimerHandle != nil && e.scheduler != nil {
			e.scheduler.Cancel(e.regs.TimerHandle)
		}
		if e.scheduler != nil && act.Ms > 0 {
			h := e.scheduler.ScheduleOnce(act.Ms, func() {
				e.stimuli <- stimTimerTick{}
			})
			e.regs = e.regs.setTimerHandle(h)
		}
	case SetPendingPingResponse:
		e.regs = e.regs.setPingPending(act.Pending)
	case ForciblyCloseTransport:
		if e.regs.Transport != nil {
			e.regs.Transport.Abort()
		}
	case StoreSentInFlightFrame:
		e.regs = e.regs.storeSentInFlight(act.ID, act.Frame)
		e.regs.Stats.SetInFlight(len(e.regs.SentInFlight))
	case RemoveSentInFlightFrame:
		e.regs = e.regs.removeSentInFlight(act.ID)
		e.regs.Stats.SetInFlight(len(e.regs.SentInFlight))
	case StoreRecvInFlightFrameID:
		e.regs = e.regs.storeRecvInFlight(act.ID)
	case RemoveRecvInFlightFrameID:
		e.regs = e.regs.removeRecvInFlight(act.ID)
	}
}
