package packets

import "bytes"

// FixedHeader is the one-byte type/flags field plus the variable-length
// remaining-length prefix shared by every MQTT control packet.
type FixedHeader struct {
	Type      byte
	Dup       bool
	Qos       QoS
	Retain    bool
	Remaining int
}

// Encode writes the fixed header, including the remaining-length field, to
// buf. Remaining must already be set to the length of the variable header
// plus payload that follows.
func (fh *FixedHeader) Encode(buf *bytes.Buffer) error {
	buf.WriteByte(fh.Type<<4 | boolToByte(fh.Dup)<<3 | byte(fh.Qos)<<1 | boolToByte(fh.Retain))
	return encodeRemainingLength(buf, fh.Remaining)
}

// Decode unpacks the type/flags byte. It does not touch the remaining-length
// field; callers read that separately since its size is variable.
func (fh *FixedHeader) Decode(b byte) error {
	fh.Type = b >> 4

	switch fh.Type {
	case Publish:
		fh.Dup = (b>>3)&0x01 > 0
		fh.Qos = QoS((b >> 1) & 0x03)
		fh.Retain = b&0x01 > 0
	case Pubrel, Subscribe, Unsubscribe:
		fh.Qos = QoS((b >> 1) & 0x03)
		// [MQTT-3.6.1-1] / [MQTT-3.8.1-1] / [MQTT-3.10.1-1]: these types carry
		// a reserved bit pattern of 0010 in bits 3-0 exclusive of type; only
		// the QoS bits vary for our purposes, and the codec tolerates any
		// dup/retain bits on these types.
	default:
		if (b>>3)&0x01 > 0 || (b>>1)&0x03 > 0 || b&0x01 > 0 {
			return ErrInvalidFlags
		}
	}

	return nil
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// encodeRemainingLength writes the MQTT variable-length integer encoding of
// length: 1-4 bytes, 7 value bits per byte, top bit a continuation flag.
func encodeRemainingLength(buf *bytes.Buffer, length int) error {
	if length < 0 || length > 268_435_455 {
		return ErrRemainingLengthOutOfRange
	}
	for {
		b := byte(length % 128)
		length /= 128
		if length > 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
		if length == 0 {
			return nil
		}
	}
}

// decodeRemainingLength reads the variable-length remaining-length integer
// starting at offset in buf. It returns the decoded value and the offset of
// the first byte following the field. It fails if a fifth continuation byte
// is encountered, or if buf is exhausted before a terminating byte is found
// (the latter signals "not enough bytes yet", not a malformed stream).
func decodeRemainingLength(buf []byte, offset int) (value, next int, err error) {
	multiplier := 1
	for i := 0; ; i++ {
		if i == 4 {
			return 0, 0, ErrRemainingLengthTooLong
		}
		if offset >= len(buf) {
			return 0, 0, errNeedMoreBytes
		}
		b := buf[offset]
		offset++
		value += int(b&0x7f) * multiplier
		if b&0x80 == 0 {
			return value, offset, nil
		}
		multiplier *= 128
	}
}
