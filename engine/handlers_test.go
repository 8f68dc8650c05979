package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brineflow/mqttengine/packets"
)

// actionContains reports whether a (possibly Sequence) action tree contains
// an element matching pred.
func actionContains(a Action, pred func(Action) bool) bool {
	if a == nil {
		return false
	}
	if pred(a) {
		return true
	}
	seq, ok := a.(Sequence)
	if !ok {
		return false
	}
	for _, sub := range seq {
		if actionContains(sub, pred) {
			return true
		}
	}
	return false
}

// TestQoS1Handshake: Publish(QoS=1, id=k) adds k to sent_in_flight;
// PubAck(k) removes it.
func TestQoS1Handshake(t *testing.T) {
	r := NewRegisters(nil, nil)
	before := len(r.SentInFlight)

	r, action := handlePublish(r, PublishCommand{Topic: "a/b", Payload: []byte("x"), Qos: packets.AtLeastOnce}, 0)
	require.Len(t, r.SentInFlight, before+1)
	require.True(t, actionContains(action, func(a Action) bool {
		_, ok := a.(StoreSentInFlightFrame)
		return ok
	}))

	var id packets.MessageID
	for k := range r.SentInFlight {
		id = k
	}

	r, action = handleFrame(r, &packets.PubAckFrame{MessageID: id}, 0)
	require.Len(t, r.SentInFlight, before)
	_, ok := action.(RemoveSentInFlightFrame)
	require.True(t, ok)
}

// TestQoS2OutboundHandshake: Publish(QoS=2, id=k) then PubRec(k) replaces
// the stored frame with PubRel(k) and writes it; PubComp(k) then removes k.
func TestQoS2OutboundHandshake(t *testing.T) {
	r := NewRegisters(nil, nil)
	r, _ = handlePublish(r, PublishCommand{Topic: "a", Payload: []byte("p"), Qos: packets.ExactlyOnce}, 0)
	require.Len(t, r.SentInFlight, 1)

	var id packets.MessageID
	for k := range r.SentInFlight {
		id = k
	}

	r, action := handleFrame(r, &packets.PubRecFrame{MessageID: id}, 0)
	require.Len(t, r.SentInFlight, 1)
	stored := r.SentInFlight[id]
	_, isRel := stored.(*packets.PubRelFrame)
	require.True(t, isRel, "stored frame should be replaced with PubRel")
	require.True(t, actionContains(action, func(a Action) bool {
		s, ok := a.(SendToNetwork)
		return ok && s.Frame.Header().Type == packets.Pubrel
	}))

	r, action = handleFrame(r, &packets.PubCompFrame{MessageID: id}, 0)
	require.Empty(t, r.SentInFlight)
	_, ok := action.(RemoveSentInFlightFrame)
	require.True(t, ok)
}

// TestQoS2InboundDedup: delivering an inbound Publish(QoS=2, id=k) twice
// before PubRel emits Message exactly once and writes PubRec twice.
func TestQoS2InboundDedup(t *testing.T) {
	r := NewRegisters(nil, nil)
	pub := &packets.PublishFrame{
		TopicName: "t", MessageID: 9, Payload: []byte("hi"),
		FixedHeader: packets.FixedHeader{Qos: packets.ExactlyOnce},
	}

	r, first := handleFrame(r, pub, 0)
	require.Contains(t, r.RecvInFlight, packets.MessageID(9))
	require.True(t, actionContains(first, func(a Action) bool {
		s, ok := a.(SendToClient)
		return ok && s.Kind == eventMessage
	}), "first delivery must emit Message")
	require.True(t, actionContains(first, func(a Action) bool {
		s, ok := a.(SendToNetwork)
		return ok && s.Frame.Header().Type == packets.Pubrec
	}))

	r2, second := handleFrame(r, pub, 0)
	require.Equal(t, r.RecvInFlight, r2.RecvInFlight)
	require.False(t, actionContains(second, func(a Action) bool {
		s, ok := a.(SendToClient)
		return ok && s.Kind == eventMessage
	}), "duplicate delivery must not re-emit Message")
	require.True(t, actionContains(second, func(a Action) bool {
		s, ok := a.(SendToNetwork)
		return ok && s.Frame.Header().Type == packets.Pubrec
	}), "duplicate delivery must still re-ack")
}

// TestTimerTickSendsPing: when no outbound frame has been sent for
// keep_alive_ms, the timer tick emits exactly one PingReq and re-arms.
func TestTimerTickSendsPing(t *testing.T) {
	r := NewRegisters(nil, nil).setKeepAlive(1000).setLastSentAt(0)

	next, action := handleTimerTick(r, 1000)
	require.True(t, next.PingResponsePending)
	require.True(t, actionContains(action, func(a Action) bool {
		s, ok := a.(SendToNetwork)
		return ok && s.Frame.Header().Type == packets.Pingreq
	}))
	require.True(t, actionContains(action, func(a Action) bool {
		_, ok := a.(StartPingRespTimer)
		return ok
	}))
}

func TestTimerTickReArmsWithoutPingBeforeDeadline(t *testing.T) {
	r := NewRegisters(nil, nil).setKeepAlive(1000).setLastSentAt(400)

	next, action := handleTimerTick(r, 900)
	require.False(t, next.PingResponsePending)
	timer, ok := action.(StartPingRespTimer)
	require.True(t, ok)
	require.EqualValues(t, 500, timer.Ms)
}

// TestTimerTickPingTimeoutClosesTransport: a pending PingReq with no
// PingResp by the next tick forces the transport closed.
func TestTimerTickPingTimeoutClosesTransport(t *testing.T) {
	r := NewRegisters(nil, nil).setKeepAlive(1000).setPingPending(true)

	_, action := handleTimerTick(r, 5000)
	_, ok := action.(ForciblyCloseTransport)
	require.True(t, ok)
}

func TestPingRespClearsPendingPing(t *testing.T) {
	r := NewRegisters(nil, nil).setPingPending(true)
	r, action := handleFrame(r, &packets.PingRespFrame{}, 0)
	require.False(t, r.PingResponsePending)
	require.Equal(t, SetPendingPingResponse{Pending: false}, action)
}
