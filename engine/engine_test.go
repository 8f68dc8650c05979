package engine

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brineflow/mqttengine/packets"
)

// fakeTransport is a test double for Transport: it records what the
// engine wrote or did, and never touches a real socket.
type fakeTransport struct {
	mu      sync.Mutex
	addr    string
	writes  [][]byte
	aborted bool
	closed  bool
}

func (t *fakeTransport) Connect(addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addr = addr
}

func (t *fakeTransport) Write(b []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, append([]byte{}, b...))
}

func (t *fakeTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

func (t *fakeTransport) Abort() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aborted = true
}

func (t *fakeTransport) writeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.writes)
}

func (t *fakeTransport) isAborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aborted
}

func (t *fakeTransport) connectedTo() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addr
}

// fakeScheduler records the last scheduled wakeup so a test can fire it on
// demand, standing in for a real timer.Scheduler.
type fakeScheduler struct {
	mu      sync.Mutex
	fn      func()
	ms      int64
	cancels int
}

func (s *fakeScheduler) ScheduleOnce(ms int64, fn func()) TimerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn, s.ms = fn, ms
	return struct{}{}
}

func (s *fakeScheduler) Cancel(TimerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
}

func (s *fakeScheduler) fire() {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *fakeScheduler) hasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn != nil
}

// fakeSink records every ClientSink call as a tagged string on a channel,
// so a test can block until the engine's own goroutine has delivered it.
type fakeSink struct {
	events chan string

	mu          sync.Mutex
	lastFailure FailureReason
	lastErrKind ErrorKind
	lastGranted []packets.QoS
}

func newFakeSink() *fakeSink { return &fakeSink{events: make(chan string, 32)} }

func (s *fakeSink) Connected()    { s.events <- "connected" }
func (s *fakeSink) Disconnected() { s.events <- "disconnected" }
func (s *fakeSink) ConnectionFailure(reason FailureReason) {
	s.mu.Lock()
	s.lastFailure = reason
	s.mu.Unlock()
	s.events <- "connection_failure"
}
func (s *fakeSink) Message(topic string, payload []byte) { s.events <- "message:" + topic }
func (s *fakeSink) Subscribed(granted []packets.QoS) {
	s.mu.Lock()
	s.lastGranted = granted
	s.mu.Unlock()
	s.events <- "subscribed"
}
func (s *fakeSink) Unsubscribed() { s.events <- "unsubscribed" }
func (s *fakeSink) Error(kind ErrorKind) {
	s.mu.Lock()
	s.lastErrKind = kind
	s.mu.Unlock()
	s.events <- "error"
}

func (s *fakeSink) errKind() ErrorKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErrKind
}

func requireEvent(t *testing.T, sink *fakeSink, want string) {
	t.Helper()
	select {
	case got := <-sink.events:
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event %q", want)
	}
}

// TestStateGateRejectsCommandsWhenNotConnected: any API command other than
// Connect/Status issued in NotConnected yields Error(NotConnected) and
// leaves Registers unchanged.
func TestStateGateRejectsCommandsWhenNotConnected(t *testing.T) {
	sink := newFakeSink()
	eng := New(sink, &fakeScheduler{}, nil, nil)
	defer eng.Stop()

	eng.Submit(PublishCommand{Topic: "a", Payload: []byte("x")})
	requireEvent(t, sink, "error")
	require.Equal(t, ErrNotConnected, sink.errKind())
	require.Equal(t, StatusNotConnected, eng.State())
}

// TestConnackSuccessEntersConnected: feed a successful CONNACK to a
// Connecting engine whose stashed action writes CONNECT; the engine emits
// Connected and enters Connected with the requested keep-alive.
func TestConnackSuccessEntersConnected(t *testing.T) {
	sink := newFakeSink()
	tr := &fakeTransport{}
	eng := New(sink, &fakeScheduler{}, nil, func() int64 { return 0 })
	defer eng.Stop()
	eng.SetTransport(tr)

	eng.Submit(ConnectCommand{RemoteAddr: "broker:1883", ClientID: "c1", KeepAliveSec: 60})
	require.Eventually(t, func() bool { return tr.connectedTo() == "broker:1883" }, time.Second, time.Millisecond)
	require.Equal(t, StatusConnecting, eng.State())

	eng.NotifyConnected()
	require.Eventually(t, func() bool { return tr.writeCount() == 1 }, time.Second, time.Millisecond)
	require.Equal(t, StatusConnected, eng.State())

	connack, err := packets.Encode(&packets.ConnackFrame{ReturnCode: packets.Accepted})
	require.NoError(t, err)
	eng.DeliverBytes(connack)

	requireEvent(t, sink, "connected")
}

// TestConnackFailureClosesTransport covers the Connack-failure half of
// frame-arrival handling: a non-zero return code emits ConnectionFailure
// and aborts the transport.
func TestConnackFailureClosesTransport(t *testing.T) {
	sink := newFakeSink()
	tr := &fakeTransport{}
	eng := New(sink, &fakeScheduler{}, nil, func() int64 { return 0 })
	defer eng.Stop()
	eng.SetTransport(tr)

	eng.Submit(ConnectCommand{RemoteAddr: "broker:1883", ClientID: "c1"})
	require.Eventually(t, func() bool { return tr.connectedTo() != "" }, time.Second, time.Millisecond)
	eng.NotifyConnected()
	require.Eventually(t, func() bool { return tr.writeCount() == 1 }, time.Second, time.Millisecond)

	connack, err := packets.Encode(&packets.ConnackFrame{ReturnCode: packets.CodeConnectNotAuthorised})
	require.NoError(t, err)
	eng.DeliverBytes(connack)

	requireEvent(t, sink, "connection_failure")
	require.Equal(t, NotAuthorized, sink.lastFailure)
	require.Eventually(t, tr.isAborted, time.Second, time.Millisecond)
}

// TestPingTimeoutAbortsTransport: a PingReq sent with no PingResp by the
// next timer tick aborts the transport, and the resulting transport closure
// emits Disconnected.
func TestPingTimeoutAbortsTransport(t *testing.T) {
	sink := newFakeSink()
	tr := &fakeTransport{}
	sched := &fakeScheduler{}
	var clock atomic.Int64
	eng := New(sink, sched, nil, clock.Load)
	defer eng.Stop()
	eng.SetTransport(tr)

	eng.Submit(ConnectCommand{RemoteAddr: "broker:1883", ClientID: "c1", KeepAliveSec: 1})
	require.Eventually(t, func() bool { return tr.connectedTo() != "" }, time.Second, time.Millisecond)
	eng.NotifyConnected()
	require.Eventually(t, func() bool { return sched.hasPending() }, time.Second, time.Millisecond)

	clock.Store(1000) // one full keep-alive interval since the CONNECT write
	sched.fire()      // first tick: not pending yet -> PingReq written, timer re-armed
	require.Eventually(t, func() bool { return tr.writeCount() == 2 }, time.Second, time.Millisecond)

	sched.fire() // second tick: still pending -> ForciblyCloseTransport
	require.Eventually(t, tr.isAborted, time.Second, time.Millisecond)

	eng.NotifyClosed()
	requireEvent(t, sink, "disconnected")
	require.Eventually(t, func() bool { return eng.State() == StatusNotConnected }, time.Second, time.Millisecond)
}

// TestSubscribeAckClearsInFlightAndEmitsSubscribed exercises the Subscribe
// command and SubAck handling end to end, including message-id allocation.
func TestSubscribeAckClearsInFlightAndEmitsSubscribed(t *testing.T) {
	sink := newFakeSink()
	tr := &fakeTransport{}
	eng := New(sink, &fakeScheduler{}, nil, func() int64 { return 0 })
	defer eng.Stop()
	eng.SetTransport(tr)

	eng.Submit(ConnectCommand{RemoteAddr: "broker:1883", ClientID: "c1"})
	require.Eventually(t, func() bool { return tr.connectedTo() != "" }, time.Second, time.Millisecond)
	eng.NotifyConnected()
	require.Eventually(t, func() bool { return tr.writeCount() == 1 }, time.Second, time.Millisecond)

	eng.Submit(SubscribeCommand{Topics: []packets.TopicFilter{{Filter: "a/#", Qos: packets.AtLeastOnce}}})
	require.Eventually(t, func() bool { return tr.writeCount() == 2 }, time.Second, time.Millisecond)

	suback, err := packets.Encode(&packets.SubAckFrame{MessageID: 1, GrantedQoS: []packets.QoS{packets.AtLeastOnce}})
	require.NoError(t, err)
	eng.DeliverBytes(suback)

	requireEvent(t, sink, "subscribed")
	require.Equal(t, []packets.QoS{packets.AtLeastOnce}, sink.lastGranted)
}
