package packets

import "bytes"

// ConnackFrame is the broker's acknowledgement of a CONNECT attempt.
type ConnackFrame struct {
	FixedHeader

	SessionPresent bool
	ReturnCode     byte
}

func (f *ConnackFrame) Header() *FixedHeader { f.Type = Connack; return &f.FixedHeader }

func (f *ConnackFrame) encodeBody(buf *bytes.Buffer) error {
	buf.WriteByte(encodeBool(f.SessionPresent))
	buf.WriteByte(f.ReturnCode)
	return nil
}

func (f *ConnackFrame) decodeBody(buf []byte) error {
	var offset int
	var err error

	f.SessionPresent, offset, err = decodeByteBool(buf, offset)
	if err != nil {
		return ErrOffsetBoolOutOfRange
	}
	f.ReturnCode, offset, err = decodeByte(buf, offset)
	if err != nil {
		return ErrMalformedReturnCode
	}
	return nil
}
