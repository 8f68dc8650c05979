package transport

import (
	"net"
	"sync"
)

// TCP is a net.Conn-backed engine.Transport, dialing out to a broker: it
// dials a single outbound connection and runs one read-loop goroutine
// feeding its Events channel.
type TCP struct {
	mu     sync.Mutex
	conn   net.Conn
	events chan Event
	once   sync.Once
}

// NewTCP returns a TCP transport. Connect must be called before Write.
func NewTCP() *TCP {
	return &TCP{events: make(chan Event, 16)}
}

// Events returns the channel of Connected/ConnectFailed/Received/Closed
// events. The caller is expected to drain it on its own goroutine and
// drive an engine.Engine from it (DeliverBytes, NotifyConnected, etc).
func (t *TCP) Events() <-chan Event { return t.events }

// Connect dials addr in a new goroutine and, on success, starts the read
// loop that feeds Events with Received chunks until the connection closes.
func (t *TCP) Connect(addr string) {
	go func() {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			t.events <- ConnectFailed{Err: err}
			return
		}

		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()

		t.events <- Connected{}
		t.readLoop(conn)
	}()
}

func (t *TCP) readLoop(conn net.Conn) {
	buf := make([]byte, readBufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			t.events <- Received{Data: append([]byte{}, buf[:n]...)}
		}
		if err != nil {
			t.once.Do(func() { t.events <- Closed{Err: err} })
			return
		}
	}
}

// Write writes b to the connection. Safe to call concurrently with Connect
// completing, since the caller only does so after observing a Connected
// event.
func (t *TCP) Write(b []byte) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return
	}
	conn.Write(b)
}

// Close closes the connection without signalling a protocol-level
// Disconnect; callers that want the MQTT DISCONNECT handshake should issue
// a DisconnectCommand to the engine instead, which calls Abort itself.
func (t *TCP) Close() { t.Abort() }

// Abort forcibly tears down the connection.
func (t *TCP) Abort() {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
