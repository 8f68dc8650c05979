package packets

// PartialFrame is the result of decoding only the fixed header and
// remaining-length prefix of a packet, plus whatever payload bytes have been
// accumulated so far. It is the reassembler's unit of incomplete-frame
// state; see DecodePartial.
type PartialFrame struct {
	FixedHeader
	Payload []byte
}

// DecodePartial reads the fixed header and remaining-length prefix from buf
// and returns a PartialFrame carrying whatever payload bytes follow them in
// buf (which may be the whole payload, part of it, or none). It returns
// errNeedMoreBytes, unexported and tested only via ErrIsIncomplete, if buf
// does not yet contain a complete fixed header + remaining-length field.
func DecodePartial(buf []byte) (PartialFrame, int, error) {
	fh, bodyStart, err := decodeFixedAndLength(buf)
	if err != nil {
		return PartialFrame{}, 0, err
	}

	have := len(buf) - bodyStart
	if have > fh.Remaining {
		have = fh.Remaining
	}

	payload := make([]byte, have)
	copy(payload, buf[bodyStart:bodyStart+have])

	return PartialFrame{FixedHeader: fh, Payload: payload}, bodyStart + have, nil
}

// ErrIsIncomplete reports whether err indicates that the supplied bytes do
// not yet contain a complete fixed header and remaining-length field (as
// opposed to being malformed). The reassembler uses this to distinguish
// "wait for more bytes" from a fatal protocol violation.
func ErrIsIncomplete(err error) bool {
	return err == errNeedMoreBytes
}

// ToFrame decodes a PartialFrame whose Payload has reached the declared
// Remaining length into a full Frame.
func (p PartialFrame) ToFrame() (Frame, error) {
	if len(p.Payload) != p.Remaining {
		return nil, ErrTruncatedPayload
	}
	f, err := newFrame(p.FixedHeader)
	if err != nil {
		return nil, err
	}
	if err := f.decodeBody(p.Payload); err != nil {
		return nil, err
	}
	return f, nil
}
