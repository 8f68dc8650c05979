package packets

import "bytes"

// Frame is the interface every MQTT 3.1 control packet satisfies: it knows
// how to encode its variable header and payload, and how to populate itself
// from the decoded bytes of one. The fixed header is handled once, by the
// top-level Encode/Decode entry points below, not by individual frames.
type Frame interface {
	// Header returns the frame's fixed header. The Remaining field is
	// meaningless until Encode has been called, or the frame was produced
	// by Decode.
	Header() *FixedHeader

	// encodeBody writes the variable header and payload (everything after
	// the fixed header) to buf.
	encodeBody(buf *bytes.Buffer) error

	// decodeBody populates the frame from the variable header and payload
	// bytes (everything after the fixed header).
	decodeBody(buf []byte) error
}

// Encode serialises f, including its fixed header, to a new byte slice.
func Encode(f Frame) ([]byte, error) {
	var body bytes.Buffer
	if err := f.encodeBody(&body); err != nil {
		return nil, err
	}

	fh := f.Header()
	fh.Remaining = body.Len()

	var out bytes.Buffer
	if err := fh.Encode(&out); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// Decode parses a complete frame (fixed header + full remaining-length body)
// from the start of buf. Any bytes after that frame are ignored; callers
// reassembling a stream should use DecodePartial instead.
func Decode(buf []byte) (Frame, error) {
	partial, bodyStart, err := decodeFixedAndLength(buf)
	if err != nil {
		return nil, err
	}
	if len(buf) < bodyStart+partial.Remaining {
		return nil, ErrTruncatedPayload
	}

	f, err := newFrame(partial)
	if err != nil {
		return nil, err
	}
	if err := f.decodeBody(buf[bodyStart : bodyStart+partial.Remaining]); err != nil {
		return nil, err
	}
	return f, nil
}

// decodeFixedAndLength decodes only the fixed header byte and the
// remaining-length field, returning the populated FixedHeader (sans payload)
// and the offset of the first payload byte.
func decodeFixedAndLength(buf []byte) (FixedHeader, int, error) {
	var fh FixedHeader
	if len(buf) < 1 {
		return fh, 0, errNeedMoreBytes
	}
	if err := fh.Decode(buf[0]); err != nil {
		return fh, 0, err
	}
	remaining, bodyStart, err := decodeRemainingLength(buf, 1)
	if err != nil {
		return fh, 0, err
	}
	fh.Remaining = remaining
	return fh, bodyStart, nil
}

// newFrame allocates the concrete Frame implementation for fh.Type.
func newFrame(fh FixedHeader) (Frame, error) {
	switch fh.Type {
	case Connect:
		return &ConnectFrame{FixedHeader: fh}, nil
	case Connack:
		return &ConnackFrame{FixedHeader: fh}, nil
	case Publish:
		return &PublishFrame{FixedHeader: fh}, nil
	case Puback:
		return &PubAckFrame{FixedHeader: fh}, nil
	case Pubrec:
		return &PubRecFrame{FixedHeader: fh}, nil
	case Pubrel:
		return &PubRelFrame{FixedHeader: fh}, nil
	case Pubcomp:
		return &PubCompFrame{FixedHeader: fh}, nil
	case Subscribe:
		return &SubscribeFrame{FixedHeader: fh}, nil
	case Suback:
		return &SubAckFrame{FixedHeader: fh}, nil
	case Unsubscribe:
		return &UnsubscribeFrame{FixedHeader: fh}, nil
	case Unsuback:
		return &UnsubAckFrame{FixedHeader: fh}, nil
	case Pingreq:
		return &PingReqFrame{FixedHeader: fh}, nil
	case Pingresp:
		return &PingRespFrame{FixedHeader: fh}, nil
	case Disconnect:
		return &DisconnectFrame{FixedHeader: fh}, nil
	default:
		return nil, ErrUnknownPacketType
	}
}
