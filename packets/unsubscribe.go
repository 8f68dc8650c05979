package packets

import "bytes"

// UnsubscribeFrame always carries Qos = AtLeastOnce in its fixed header
// flags, per [MQTT-3.10.1-1].
type UnsubscribeFrame struct {
	FixedHeader
	MessageID MessageID
	Filters   []string
}

func (f *UnsubscribeFrame) Header() *FixedHeader { f.Type = Unsubscribe; return &f.FixedHeader }

func (f *UnsubscribeFrame) encodeBody(buf *bytes.Buffer) error {
	f.Qos = AtLeastOnce
	buf.Write(encodeUint16(uint16(f.MessageID)))
	for _, filter := range f.Filters {
		buf.Write(encodeString(filter))
	}
	return nil
}

func (f *UnsubscribeFrame) decodeBody(buf []byte) error {
	id, offset, err := decodeUint16(buf, 0)
	if err != nil {
		return ErrMalformedPacketID
	}
	f.MessageID = MessageID(id)

	for offset < len(buf) {
		filter, next, err := decodeString(buf, offset)
		if err != nil {
			return err
		}
		f.Filters = append(f.Filters, filter)
		offset = next
	}
	return nil
}

// UnsubAckFrame acknowledges an UnsubscribeFrame.
type UnsubAckFrame struct {
	FixedHeader
	MessageID MessageID
}

func (f *UnsubAckFrame) Header() *FixedHeader { f.Type = Unsuback; return &f.FixedHeader }

func (f *UnsubAckFrame) encodeBody(buf *bytes.Buffer) error {
	buf.Write(encodeUint16(uint16(f.MessageID)))
	return nil
}

func (f *UnsubAckFrame) decodeBody(buf []byte) error {
	id, _, err := decodeUint16(buf, 0)
	if err != nil {
		return ErrMalformedPacketID
	}
	f.MessageID = MessageID(id)
	return nil
}
