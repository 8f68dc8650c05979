package packets

import "bytes"

// PublishFrame carries application payload on a topic. MessageID is only
// meaningful (and only encoded/decoded) when Qos > AtMostOnce.
type PublishFrame struct {
	FixedHeader

	TopicName string
	MessageID MessageID
	Payload   []byte
}

func (f *PublishFrame) Header() *FixedHeader { f.Type = Publish; return &f.FixedHeader }

func (f *PublishFrame) encodeBody(buf *bytes.Buffer) error {
	buf.Write(encodeString(f.TopicName))
	if f.Qos > AtMostOnce {
		buf.Write(encodeUint16(uint16(f.MessageID)))
	}
	buf.Write(f.Payload)
	return nil
}

func (f *PublishFrame) decodeBody(buf []byte) error {
	topic, offset, err := decodeString(buf, 0)
	if err != nil {
		return err
	}
	f.TopicName = topic

	if f.Qos > AtMostOnce {
		id, next, err := decodeUint16(buf, offset)
		if err != nil {
			return ErrMalformedPacketID
		}
		f.MessageID = MessageID(id)
		offset = next
	}

	f.Payload = append([]byte{}, buf[offset:]...)
	return nil
}
