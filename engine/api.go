// Package engine implements the MQTT 3.1 client protocol core: the
// handlers, registers and state machine that sit between an application and
// a remote broker. It depends on packets (the wire codec) and reassemble
// (stream framing), and is itself independent of any concrete transport,
// timer or application surface — those are supplied by the caller as the
// Transport, Scheduler and ClientSink interfaces.
package engine

import "github.com/brineflow/mqttengine/packets"

// Command is the application command port: the sum type of everything a
// caller can ask the engine to do.
type Command interface{ isCommand() }

// StatusCommand queries the current connection state. It is answered with
// Disconnected when not connected and Connected when connected; while a
// connection attempt is still in progress it is answered with
// Error(ErrNotConnected).
type StatusCommand struct{}

func (StatusCommand) isCommand() {}

// Will describes a CONNECT packet's last-will-and-testament.
type Will struct {
	Topic   string
	Message []byte
	Qos     packets.QoS
	Retain  bool
}

// ConnectCommand requests a new connection to a broker. RemoteAddr is
// passed straight through to the Transport's Connect method; the engine
// itself never parses or validates it.
type ConnectCommand struct {
	RemoteAddr   string
	ClientID     string
	CleanSession bool
	KeepAliveSec uint16
	Will         *Will
	Username     string
	Password     []byte
	HasUsername  bool
	HasPassword  bool
}

func (ConnectCommand) isCommand() {}

// DisconnectCommand requests a clean shutdown of the current connection.
type DisconnectCommand struct{}

func (DisconnectCommand) isCommand() {}

// SubscribeCommand requests one or more topic-filter subscriptions.
type SubscribeCommand struct {
	Topics []packets.TopicFilter
}

func (SubscribeCommand) isCommand() {}

// UnsubscribeCommand requests removal of one or more subscriptions.
type UnsubscribeCommand struct {
	Filters []string
}

func (UnsubscribeCommand) isCommand() {}

// PublishCommand requests publication of a message.
type PublishCommand struct {
	Topic   string
	Payload []byte
	Qos     packets.QoS
	Retain  bool
}

func (PublishCommand) isCommand() {}

// FailureReason enumerates why a connection attempt did not succeed.
type FailureReason int

const (
	ServerNotResponding FailureReason = iota
	BadProtocolVersion
	IdentifierRejected
	ServerUnavailable
	BadUserNameOrPassword
	NotAuthorized
	TransportNotReady
)

func (r FailureReason) String() string {
	switch r {
	case ServerNotResponding:
		return "ServerNotResponding"
	case BadProtocolVersion:
		return "BadProtocolVersion"
	case IdentifierRejected:
		return "IdentifierRejected"
	case ServerUnavailable:
		return "ServerUnavailable"
	case BadUserNameOrPassword:
		return "BadUserNameOrPassword"
	case NotAuthorized:
		return "NotAuthorized"
	case TransportNotReady:
		return "TransportNotReady"
	default:
		return "Unknown"
	}
}

// failureReasonFromConnack maps an MQTT 3.1 CONNACK return code to the
// event-port FailureReason.
func failureReasonFromConnack(code byte) FailureReason {
	switch code {
	case packets.CodeConnectBadProtocolVersion:
		return BadProtocolVersion
	case packets.CodeConnectBadClientID:
		return IdentifierRejected
	case packets.CodeConnectServerUnavailable:
		return ServerUnavailable
	case packets.CodeConnectBadAuthValues:
		return BadUserNameOrPassword
	case packets.CodeConnectNotAuthorised:
		return NotAuthorized
	default:
		return ServerNotResponding
	}
}

// ErrorKind enumerates application-facing error categories. ErrNotConnected
// leaves the engine's state unchanged; ErrProtocolError is emitted when
// inbound bytes cannot be decoded, and the engine then aborts the transport.
type ErrorKind int

const (
	ErrNotConnected ErrorKind = iota
	ErrProtocolError
	ErrTransportNotReady
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotConnected:
		return "NotConnected"
	case ErrProtocolError:
		return "ProtocolError"
	case ErrTransportNotReady:
		return "TransportNotReady"
	default:
		return "Unknown"
	}
}

// ClientSink is the application event port: everything the engine emits to
// the application. Implementations must not block for long; the engine
// calls these synchronously from its stimulus loop.
type ClientSink interface {
	Connected()
	Disconnected()
	ConnectionFailure(reason FailureReason)
	Message(topic string, payload []byte)
	Subscribed(grantedQos []packets.QoS)
	Unsubscribed()
	Error(kind ErrorKind)
}

// ConnStatus is the value reported by the StatusCommand's Disconnected /
// Connected delivery; the engine itself tracks it as FSM state, not as a
// register, but it is exposed here for callers inspecting Engine.State().
type ConnStatus int

const (
	StatusNotConnected ConnStatus = iota
	StatusConnecting
	StatusConnected
)

func (s ConnStatus) String() string {
	switch s {
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	default:
		return "NotConnected"
	}
}
