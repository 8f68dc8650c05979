// Package transport provides concrete engine.Transport implementations:
// TCP (net.Conn) and WebSocket (gorilla/websocket), each dialing out to a
// broker and feeding an Events channel for whatever drives the engine.
package transport

// Event is the sum type a transport emits on its Events channel, read by
// whatever wires the transport to an engine.Engine (typically cmd/mqttc).
type Event interface{ isEvent() }

// Connected reports that the dial completed; the engine's Connect-command
// sequence (CONNECT frame write, keep-alive arming) runs after this.
type Connected struct{}

func (Connected) isEvent() {}

// ConnectFailed reports that the dial itself failed.
type ConnectFailed struct{ Err error }

func (ConnectFailed) isEvent() {}

// Received carries one inbound chunk, handed to engine.Engine.DeliverBytes.
type Received struct{ Data []byte }

func (Received) isEvent() {}

// Closed reports that the connection ended, whether by peer close, local
// Abort, or a read/write error.
type Closed struct{ Err error }

func (Closed) isEvent() {}

const readBufSize = 4096
