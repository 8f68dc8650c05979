package engine

import "github.com/brineflow/mqttengine/packets"

// allocateMessageID assigns message ids with a monotonically increasing
// uint16 counter that wraps from 65535 back to 1 (0 is reserved and never
// allocated), skipping any id still present in sent_in_flight. Deterministic
// and collision-free without needing randomness, carried as a pure
// Registers field since handlers here are pure functions rather than
// methods on a live connection object.
func (r Registers) allocateMessageID() (packets.MessageID, Registers) {
	id := r.lastMessageID
	for {
		id++
		if id == 0 {
			id = 1
		}
		if _, taken := r.SentInFlight[id]; !taken {
			break
		}
	}

	next := r.clone()
	next.lastMessageID = id
	return id, next
}
