package engine

import (
	"github.com/brineflow/mqttengine/packets"
	"github.com/brineflow/mqttengine/reassemble"
	"github.com/brineflow/mqttengine/telemetry"
)

// Transport is the engine's outbound view of its transport collaborator.
// Concrete implementations (package transport) satisfy this structurally;
// the engine never imports them.
type Transport interface {
	Connect(addr string)
	Write(b []byte)
	Close()
	Abort()
}

// TimerHandle identifies a scheduled wakeup; it is opaque to the engine.
type TimerHandle interface{}

// Scheduler is the engine's outbound view of its timer collaborator.
type Scheduler interface {
	ScheduleOnce(ms int64, fn func()) TimerHandle
	Cancel(h TimerHandle)
}

// Registers is the engine's mutable protocol state. Handlers never mutate
// it in place; each pure mutator below returns a modified copy, so that
// handler functions can be expressed and tested as ordinary (Registers,
// Stimulus) -> (Registers, Action) transitions. Collaborator handles
// (Client, Transport, TimerHandle) are carried here as opaque, non-owning
// identities — all such relations are by identity, not ownership — and
// handlers thread them through unexamined; only the Engine interprets them
// to perform I/O.
type Registers struct {
	Client    ClientSink
	Transport Transport

	// Watching is true while the engine holds a live subscription to the
	// transport's termination event.
	Watching bool

	// KeepAliveMs is the negotiated keep-alive interval; zero disables it.
	KeepAliveMs int64

	// LastSentAtMs is the monotonic millisecond timestamp of the last
	// outbound byte written to the transport.
	LastSentAtMs int64

	// PingResponsePending is true from the moment a PingReq is written
	// until a PingResp is received.
	PingResponsePending bool

	// TimerHandle is set only while Connected and KeepAliveMs > 0.
	TimerHandle TimerHandle

	// SentInFlight maps MessageID to the frame sent at QoS >= 1, not yet
	// fully acknowledged.
	SentInFlight map[packets.MessageID]packets.Frame

	// RecvInFlight holds the MessageIDs of QoS 2 publishes received but not
	// yet released: PubRec sent, PubComp not yet sent.
	RecvInFlight map[packets.MessageID]struct{}

	// ReadBuffer is the reassembler's carry-over from the last inbound
	// chunk.
	ReadBuffer reassemble.State

	// lastMessageID is the allocator's high-water mark; see
	// allocateMessageID in messageid.go.
	lastMessageID packets.MessageID

	// Stats is an optional, purely observational counters sink. Handlers
	// never branch on it.
	Stats *telemetry.Counters
}

// NewRegisters returns the Registers an engine is constructed with, before
// any Connect command has succeeded. stats may be nil.
func NewRegisters(client ClientSink, stats *telemetry.Counters) Registers {
	return Registers{
		Client:       client,
		SentInFlight: make(map[packets.MessageID]packets.Frame),
		RecvInFlight: make(map[packets.MessageID]struct{}),
		Stats:        stats,
	}
}

// clone returns a shallow copy of r with its own SentInFlight and
// RecvInFlight maps, so callers can mutate the copy without aliasing r.
func (r Registers) clone() Registers {
	next := r
	next.SentInFlight = make(map[packets.MessageID]packets.Frame, len(r.SentInFlight))
	for id, f := range r.SentInFlight {
		next.SentInFlight[id] = f
	}
	next.RecvInFlight = make(map[packets.MessageID]struct{}, len(r.RecvInFlight))
	for id := range r.RecvInFlight {
		next.RecvInFlight[id] = struct{}{}
	}
	return next
}

func (r Registers) setClient(c ClientSink) Registers {
	next := r.clone()
	next.Client = c
	return next
}

func (r Registers) setTransport(t Transport) Registers {
	next := r.clone()
	next.Transport = t
	return next
}

func (r Registers) watchTransport() Registers {
	next := r.clone()
	next.Watching = true
	return next
}

func (r Registers) unwatchTransport() Registers {
	next := r.clone()
	next.Watching = false
	return next
}

// setKeepAlive sets the negotiated keep-alive interval.
func (r Registers) setKeepAlive(ms int64) Registers {
	next := r.clone()
	next.KeepAliveMs = ms
	return next
}

// setLastSentAt records the timestamp of the most recent outbound write.
func (r Registers) setLastSentAt(ms int64) Registers {
	next := r.clone()
	next.LastSentAtMs = ms
	return next
}

// setPingPending sets or clears the ping-outstanding flag.
func (r Registers) setPingPending(pending bool) Registers {
	next := r.clone()
	next.PingResponsePending = pending
	return next
}

func (r Registers) setTimerHandle(h TimerHandle) Registers {
	next := r.clone()
	next.TimerHandle = h
	return next
}

func (r Registers) cancelTimer() Registers {
	next := r.clone()
	next.TimerHandle = nil
	return next
}

// storeSentInFlight records a frame sent at QoS >= 1, keyed on id.
func (r Registers) storeSentInFlight(id packets.MessageID, f packets.Frame) Registers {
	next := r.clone()
	next.SentInFlight[id] = f
	return next
}

// removeSentInFlight drops id; absent ids are a silent no-op.
func (r Registers) removeSentInFlight(id packets.MessageID) Registers {
	next := r.clone()
	delete(next.SentInFlight, id)
	return next
}

// storeRecvInFlight marks a QoS 2 inbound message id as PubRec-sent.
func (r Registers) storeRecvInFlight(id packets.MessageID) Registers {
	next := r.clone()
	next.RecvInFlight[id] = struct{}{}
	return next
}

// removeRecvInFlight releases a QoS 2 inbound message id.
func (r Registers) removeRecvInFlight(id packets.MessageID) Registers {
	next := r.clone()
	delete(next.RecvInFlight, id)
	return next
}

// setReadBuffer replaces the reassembler carry-over snapshot.
func (r Registers) setReadBuffer(s reassemble.State) Registers {
	next := r.clone()
	next.ReadBuffer = s
	return next
}

// resetConnection clears keep-alive, ping state, the timer handle and both
// in-flight tables, as happens on every transition out of Connected
// (transport loss, explicit disconnect). Client and Transport are left
// alone; the caller (Engine) is responsible for swapping Transport on the
// next Connect.
func (r Registers) resetConnection() Registers {
	return Registers{
		Client:        r.Client,
		Transport:     r.Transport,
		SentInFlight:  make(map[packets.MessageID]packets.Frame),
		RecvInFlight:  make(map[packets.MessageID]struct{}),
		lastMessageID: r.lastMessageID,
		Stats:         r.Stats,
	}
}
