package engine

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/brineflow/mqttengine/packets"
)

// Snapshot is a serializable projection of the in-flight tables: a caller
// can take one, hold onto it across a Connect/reconnect cycle within the
// same process, and replay it with RestoreSnapshot once the new session is
// established. The engine itself never persists this anywhere; there is no
// durable session store.
type Snapshot struct {
	LastMessageID packets.MessageID            `msgpack:"last_message_id"`
	SentInFlight  map[packets.MessageID][]byte `msgpack:"sent_in_flight"`
	RecvInFlight  []packets.MessageID          `msgpack:"recv_in_flight"`
}

// Snapshot captures the engine's current in-flight tables. Safe to call
// from any goroutine; it briefly locks the engine's internal mutex.
func (e *Engine) Snapshot() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		LastMessageID: e.regs.lastMessageID,
		SentInFlight:  make(map[packets.MessageID][]byte, len(e.regs.SentInFlight)),
		RecvInFlight:  make([]packets.MessageID, 0, len(e.regs.RecvInFlight)),
	}
	for id, frame := range e.regs.SentInFlight {
		b, err := packets.Encode(frame)
		if err != nil {
			return Snapshot{}, err
		}
		snap.SentInFlight[id] = b
	}
	for id := range e.regs.RecvInFlight {
		snap.RecvInFlight = append(snap.RecvInFlight, id)
	}
	return snap, nil
}

// Marshal serializes a Snapshot with msgpack, a compact binary format.
func (s Snapshot) Marshal() ([]byte, error) {
	return msgpack.Marshal(s)
}

// UnmarshalSnapshot is the inverse of Snapshot.Marshal.
func UnmarshalSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	err := msgpack.Unmarshal(b, &s)
	return s, err
}

// RestoreSnapshot replaces the engine's in-flight tables with snap's
// contents. It must be called after a Connect command's transport has
// reconnected (engine state Connected) and before any further Publish,
// Subscribe or Unsubscribe commands, or newly allocated message ids may
// collide with restored ones.
func (e *Engine) RestoreSnapshot(snap Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sent := make(map[packets.MessageID]packets.Frame, len(snap.SentInFlight))
	for id, b := range snap.SentInFlight {
		f, err := packets.Decode(b)
		if err != nil {
			return err
		}
		sent[id] = f
	}

	recv := make(map[packets.MessageID]struct{}, len(snap.RecvInFlight))
	for _, id := range snap.RecvInFlight {
		recv[id] = struct{}{}
	}

	next := e.regs.clone()
	next.SentInFlight = sent
	next.RecvInFlight = recv
	if snap.LastMessageID > next.lastMessageID {
		next.lastMessageID = snap.LastMessageID
	}
	e.regs = next
	e.regs.Stats.SetInFlight(len(sent))
	return nil
}
