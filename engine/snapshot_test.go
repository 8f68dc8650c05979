package engine

import (
	"testing"
	"time"

	"github.com/jinzhu/copier"
	"github.com/stretchr/testify/require"

	"github.com/brineflow/mqttengine/packets"
)

// TestSnapshotRoundTrip: both in-flight tables survive Snapshot -> Marshal
// -> Unmarshal -> RestoreSnapshot into a fresh engine.
func TestSnapshotRoundTrip(t *testing.T) {
	sink := newFakeSink()
	tr := &fakeTransport{}
	eng := New(sink, &fakeScheduler{}, nil, func() int64 { return 0 })
	defer eng.Stop()
	eng.SetTransport(tr)

	eng.Submit(ConnectCommand{RemoteAddr: "broker:1883", ClientID: "snap"})
	require.Eventually(t, func() bool { return tr.connectedTo() != "" }, time.Second, time.Millisecond)
	eng.NotifyConnected()
	require.Eventually(t, func() bool { return tr.writeCount() == 1 }, time.Second, time.Millisecond)

	// One outbound QoS 2 publish awaiting PubRec...
	eng.Submit(PublishCommand{Topic: "q", Payload: []byte("body"), Qos: packets.ExactlyOnce})
	require.Eventually(t, func() bool { return tr.writeCount() == 2 }, time.Second, time.Millisecond)

	// ...and one inbound QoS 2 publish awaiting PubRel.
	inbound, err := packets.Encode(&packets.PublishFrame{
		TopicName: "in", MessageID: 9, Payload: []byte("dup-me"),
		FixedHeader: packets.FixedHeader{Qos: packets.ExactlyOnce},
	})
	require.NoError(t, err)
	eng.DeliverBytes(inbound)
	requireEvent(t, sink, "message:in")

	snap, err := eng.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.SentInFlight, 1)
	require.Equal(t, []packets.MessageID{9}, snap.RecvInFlight)

	// Deep-copy the snapshot before serialising so the comparison below
	// cannot be satisfied by aliased slices.
	var want Snapshot
	require.NoError(t, copier.Copy(&want, &snap))

	b, err := snap.Marshal()
	require.NoError(t, err)
	decoded, err := UnmarshalSnapshot(b)
	require.NoError(t, err)
	require.Equal(t, want.LastMessageID, decoded.LastMessageID)
	require.Equal(t, want.SentInFlight, decoded.SentInFlight)
	require.ElementsMatch(t, want.RecvInFlight, decoded.RecvInFlight)

	eng2 := New(newFakeSink(), &fakeScheduler{}, nil, func() int64 { return 0 })
	defer eng2.Stop()
	require.NoError(t, eng2.RestoreSnapshot(decoded))

	restored, err := eng2.Snapshot()
	require.NoError(t, err)
	require.Equal(t, want.LastMessageID, restored.LastMessageID)
	require.Equal(t, want.SentInFlight, restored.SentInFlight)
	require.ElementsMatch(t, want.RecvInFlight, restored.RecvInFlight)
}
