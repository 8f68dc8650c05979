package engine

import "github.com/brineflow/mqttengine/packets"

// Action is the sum type handlers return describing what the Engine must
// subsequently do. A handler never performs I/O or mutates the transport
// directly; it only builds a tree of Actions for the Engine to interpret.
type Action interface{ isAction() }

// Sequence composes actions, executed left to right.
type Sequence []Action

func (Sequence) isAction() {}

// SendToNetwork encodes and writes Frame, updating last_sent_at_ms.
type SendToNetwork struct{ Frame packets.Frame }

func (SendToNetwork) isAction() {}

// SendToClient emits an application-visible event. Kind selects the event;
// only the fields that event carries are meaningful.
type SendToClient struct {
	Kind          clientEventKind
	FailureReason FailureReason
	Topic         string
	Payload       []byte
	GrantedQos    []packets.QoS
	ErrorKind     ErrorKind
}

func (SendToClient) isAction() {}

type clientEventKind int

const (
	eventConnected clientEventKind = iota
	eventDisconnected
	eventConnectionFailure
	eventMessage
	eventSubscribed
	eventUnsubscribed
	eventError
)

// SetKeepAlive sets the keep-alive interval, in milliseconds.
type SetKeepAlive struct{ Ms int64 }

func (SetKeepAlive) isAction() {}

// StartPingRespTimer schedules a single-shot wakeup after Ms milliseconds.
type StartPingRespTimer struct{ Ms int64 }

func (StartPingRespTimer) isAction() {}

// SetPendingPingResponse sets the ping-outstanding flag.
type SetPendingPingResponse struct{ Pending bool }

func (SetPendingPingResponse) isAction() {}

// ForciblyCloseTransport aborts the underlying connection.
type ForciblyCloseTransport struct{}

func (ForciblyCloseTransport) isAction() {}

// StoreSentInFlightFrame records f as sent at QoS >= 1, awaiting ack.
type StoreSentInFlightFrame struct {
	ID    packets.MessageID
	Frame packets.Frame
}

func (StoreSentInFlightFrame) isAction() {}

// RemoveSentInFlightFrame drops id from the sent in-flight table.
type RemoveSentInFlightFrame struct{ ID packets.MessageID }

func (RemoveSentInFlightFrame) isAction() {}

// StoreRecvInFlightFrameID marks id as PubRec-sent for an inbound QoS 2
// publish.
type StoreRecvInFlightFrameID struct{ ID packets.MessageID }

func (StoreRecvInFlightFrameID) isAction() {}

// RemoveRecvInFlightFrameID releases id from the recv in-flight set.
type RemoveRecvInFlightFrameID struct{ ID packets.MessageID }

func (RemoveRecvInFlightFrameID) isAction() {}

// Convenience constructors for the SendToClient variants, so handlers read
// as intent rather than field assignment.

func sendConnected() Action { return SendToClient{Kind: eventConnected} }
func sendConnectionFailure(reason FailureReason) Action {
	return SendToClient{Kind: eventConnectionFailure, FailureReason: reason}
}
func sendMessage(topic string, payload []byte) Action {
	return SendToClient{Kind: eventMessage, Topic: topic, Payload: payload}
}
func sendSubscribed(granted []packets.QoS) Action {
	return SendToClient{Kind: eventSubscribed, GrantedQos: granted}
}
func sendUnsubscribed() Action { return SendToClient{Kind: eventUnsubscribed} }
func sendError(kind ErrorKind) Action {
	return SendToClient{Kind: eventError, ErrorKind: kind}
}

// deliver invokes the matching ClientSink method for a SendToClient action.
func (a SendToClient) deliver(sink ClientSink) {
	switch a.Kind {
	case eventConnected:
		sink.Connected()
	case eventDisconnected:
		sink.Disconnected()
	case eventConnectionFailure:
		sink.ConnectionFailure(a.FailureReason)
	case eventMessage:
		sink.Message(a.Topic, a.Payload)
	case eventSubscribed:
		sink.Subscribed(a.GrantedQos)
	case eventUnsubscribed:
		sink.Unsubscribed()
	case eventError:
		sink.Error(a.ErrorKind)
	}
}
