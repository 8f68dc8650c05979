package transport

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocket is a gorilla/websocket-backed engine.Transport: it dials out to
// a broker over ws/wss, advertising the "mqtt" subprotocol, and frames each
// MQTT packet as a single binary WebSocket message.
type WebSocket struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	events chan Event
	once   sync.Once

	dialer *websocket.Dialer
}

// NewWebSocket returns a WebSocket transport.
func NewWebSocket() *WebSocket {
	return &WebSocket{
		events: make(chan Event, 16),
		dialer: &websocket.Dialer{Subprotocols: []string{"mqtt"}},
	}
}

// Events returns the channel of Connected/ConnectFailed/Received/Closed
// events.
func (w *WebSocket) Events() <-chan Event { return w.events }

// Connect dials addr, a ws:// or wss:// URL, in a new goroutine.
func (w *WebSocket) Connect(addr string) {
	go func() {
		u, err := url.Parse(addr)
		if err != nil {
			w.events <- ConnectFailed{Err: err}
			return
		}

		conn, _, err := w.dialer.Dial(u.String(), http.Header{})
		if err != nil {
			w.events <- ConnectFailed{Err: err}
			return
		}

		w.mu.Lock()
		w.conn = conn
		w.mu.Unlock()

		w.events <- Connected{}
		w.readLoop(conn)
	}()
}

func (w *WebSocket) readLoop(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			w.once.Do(func() { w.events <- Closed{Err: err} })
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		w.events <- Received{Data: data}
	}
}

// Write frames b as a single binary WebSocket message.
func (w *WebSocket) Write(b []byte) {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return
	}
	conn.WriteMessage(websocket.BinaryMessage, b)
}

// Close closes the underlying connection. As with TCP, callers wanting a
// clean MQTT disconnect should issue a DisconnectCommand instead.
func (w *WebSocket) Close() { w.Abort() }

// Abort forcibly tears down the connection.
func (w *WebSocket) Abort() {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
