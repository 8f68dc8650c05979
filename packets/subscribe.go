package packets

import "bytes"

// TopicFilter pairs a subscription filter with its requested QoS.
type TopicFilter struct {
	Filter string
	Qos    QoS
}

// SubscribeFrame always carries Qos = AtLeastOnce in its fixed header flags,
// per [MQTT-3.8.1-1].
type SubscribeFrame struct {
	FixedHeader
	MessageID MessageID
	Filters   []TopicFilter
}

func (f *SubscribeFrame) Header() *FixedHeader { f.Type = Subscribe; return &f.FixedHeader }

func (f *SubscribeFrame) encodeBody(buf *bytes.Buffer) error {
	f.Qos = AtLeastOnce
	buf.Write(encodeUint16(uint16(f.MessageID)))
	for _, tf := range f.Filters {
		buf.Write(encodeString(tf.Filter))
		buf.WriteByte(byte(tf.Qos))
	}
	return nil
}

func (f *SubscribeFrame) decodeBody(buf []byte) error {
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
		qos, next, err := decodeByte(buf, next)
		if err != nil {
			return err
		}
		f.Filters = append(f.Filters, TopicFilter{Filter: filter, Qos: QoS(qos)})
		offset = next
	}
	return nil
}

// SubAckFrame carries the broker's per-filter granted QoS, in the same order
// as the originating SubscribeFrame's Filters.
type SubAckFrame struct {
	FixedHeader
	MessageID  MessageID
	GrantedQoS []QoS
}

func (f *SubAckFrame) Header() *FixedHeader { f.Type = Suback; return &f.FixedHeader }

func (f *SubAckFrame) encodeBody(buf *bytes.Buffer) error {
	buf.Write(encodeUint16(uint16(f.MessageID)))
	for _, q := range f.GrantedQoS {
		buf.WriteByte(byte(q))
	}
	return nil
}

func (f *SubAckFrame) decodeBody(buf []byte) error {
	id, offset, err := decodeUint16(buf, 0)
	if err != nil {
		return ErrMalformedPacketID
	}
	f.MessageID = MessageID(id)

	for offset < len(buf) {
		q, next, err := decodeByte(buf, offset)
		if err != nil {
			return err
		}
		f.GrantedQoS = append(f.GrantedQoS, QoS(q))
		offset = next
	}
	return nil
}
