// Package reassemble turns arbitrary byte chunks off a stream transport into
// whole MQTT frames. It owns no I/O: it is handed bytes, and returns frames
// plus whatever partial state must carry over to the next chunk.
//
// The algorithm is a pure-function peek-then-accumulate reader: rather than
// blocking on a bufio.Reader, this package is handed already-arrived bytes
// and returns synchronously, so it can be driven from a single-threaded
// engine loop instead of its own goroutine.
package reassemble

import "github.com/brineflow/mqttengine/packets"

// State is the reassembler's carry-over between chunks. It corresponds to
// the engine's read_buffer register: while non-empty, the declared
// Remaining always exceeds the accumulated payload size.
//
// Two shapes of carry-over exist: a fragment too short to contain even a
// full fixed header + remaining-length field yet (raw set, pending nil), and
// a fully-parsed partial frame still short of its declared payload (pending
// set).
type State struct {
	pending *packets.PartialFrame
	raw     []byte
}

// Empty reports whether there is no carried-over state at all.
func (s State) Empty() bool { return s.pending == nil && len(s.raw) == 0 }

// Feed accepts one inbound chunk and the current State, and returns every
// whole frame the chunk completes (in wire order) plus the State to carry
// into the next call. Empty chunks are ignored. A decode failure on the
// fixed header of a fresh chunk, or on a completed frame, is fatal and
// returned as err; the caller is expected to close the connection and
// discard the returned state.
func Feed(chunk []byte, s State) ([]packets.Frame, State, error) {
	if len(chunk) == 0 {
		return nil, s, nil
	}

	switch {
	case s.pending != nil:
		return feedPending(chunk, s)
	case len(s.raw) > 0:
		return feedFresh(append(append([]byte{}, s.raw...), chunk...))
	default:
		return feedFresh(chunk)
	}
}

// feedFresh decodes buf as if no frame is currently in flight.
func feedFresh(buf []byte) ([]packets.Frame, State, error) {
	partial, consumed, err := packets.DecodePartial(buf)
	if err != nil {
		if packets.ErrIsIncomplete(err) {
			return nil, State{raw: buf}, nil
		}
		return nil, State{}, err
	}

	if len(partial.Payload) == partial.Remaining {
		f, err := partial.ToFrame()
		if err != nil {
			return nil, State{}, err
		}
		more, next, err := Feed(buf[consumed:], State{})
		if err != nil {
			return nil, State{}, err
		}
		return append([]packets.Frame{f}, more...), next, nil
	}

	return nil, State{pending: &partial}, nil
}

// feedPending extends an in-flight partial frame with chunk.
func feedPending(chunk []byte, s State) ([]packets.Frame, State, error) {
	have := len(s.pending.Payload) + len(chunk)
	need := s.pending.Remaining

	switch {
	case have == need:
		partial := *s.pending
		partial.Payload = append(append([]byte{}, partial.Payload...), chunk...)
		f, err := partial.ToFrame()
		if err != nil {
			return nil, State{}, err
		}
		return []packets.Frame{f}, State{}, nil

	case have < need:
		partial := *s.pending
		partial.Payload = append(append([]byte{}, partial.Payload...), chunk...)
		return nil, State{pending: &partial}, nil

	default: // have > need: this chunk both closes the pending frame and
		// carries the start of one or more further frames.
		closing := need - len(s.pending.Payload)
		partial := *s.pending
		partial.Payload = append(append([]byte{}, partial.Payload...), chunk[:closing]...)
		f, err := partial.ToFrame()
		if err != nil {
			return nil, State{}, err
		}

		more, next, err := Feed(chunk[closing:], State{})
		if err != nil {
			return nil, State{}, err
		}
		return append([]packets.Frame{f}, more...), next, nil
	}
}
