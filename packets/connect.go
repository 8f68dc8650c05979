package packets

import "bytes"

// ConnectFrame is the MQTT 3.1 CONNECT control packet: protocol
// identification, session and will flags, keep-alive, and the optional
// client id / will / username / password fields.
type ConnectFrame struct {
	FixedHeader

	ClientID     string
	CleanSession bool
	KeepAlive    uint16

	WillFlag    bool
	WillTopic   string
	WillMessage []byte
	WillQos     QoS
	WillRetain  bool

	UsernameFlag bool
	Username     string
	PasswordFlag bool
	Password     []byte
}

func (f *ConnectFrame) Header() *FixedHeader { f.Type = Connect; return &f.FixedHeader }

func (f *ConnectFrame) encodeBody(buf *bytes.Buffer) error {
	buf.Write(protocolName)
	buf.WriteByte(protocolLevel)

	flags := encodeBool(f.UsernameFlag)<<7 |
		encodeBool(f.PasswordFlag)<<6 |
		encodeBool(f.WillRetain)<<5 |
		byte(f.WillQos)<<3 |
		encodeBool(f.WillFlag)<<2 |
		encodeBool(f.CleanSession)<<1
	buf.WriteByte(flags)

	buf.Write(encodeUint16(f.KeepAlive))
	buf.Write(encodeString(f.ClientID))

	if f.WillFlag {
		buf.Write(encodeString(f.WillTopic))
		buf.Write(encodeBytes(f.WillMessage))
	}
	if f.UsernameFlag {
		buf.Write(encodeString(f.Username))
	}
	if f.PasswordFlag {
		buf.Write(encodeBytes(f.Password))
	}
	return nil
}

func (f *ConnectFrame) decodeBody(buf []byte) error {
	name, offset, err := decodeBytes(buf, 0)
	if err != nil || !bytes.Equal(name, []byte("MQIsdp")) {
		return ErrMalformedProtocolName
	}

	// protocol level byte; MQTT 3.1 clients/brokers tolerate but do not
	// validate it beyond presence, since we speak exactly one level.
	_, offset, err = decodeByte(buf, offset)
	if err != nil {
		return ErrMalformedProtocolName
	}

	flags, offset, err := decodeByte(buf, offset)
	if err != nil {
		return ErrOffsetByteOutOfRange
	}
	f.UsernameFlag = flags&0x80 > 0
	f.PasswordFlag = flags&0x40 > 0
	f.WillRetain = flags&0x20 > 0
	f.WillQos = QoS((flags >> 3) & 0x03)
	f.WillFlag = flags&0x04 > 0
	f.CleanSession = flags&0x02 > 0

	f.KeepAlive, offset, err = decodeUint16(buf, offset)
	if err != nil {
		return ErrOffsetUintOutOfRange
	}

	f.ClientID, offset, err = decodeString(buf, offset)
	if err != nil {
		return err
	}

	if f.WillFlag {
		f.WillTopic, offset, err = decodeString(buf, offset)
		if err != nil {
			return err
		}
		f.WillMessage, offset, err = decodeBytes(buf, offset)
		if err != nil {
			return err
		}
	}
	if f.UsernameFlag {
		f.Username, offset, err = decodeString(buf, offset)
		if err != nil {
			return err
		}
	}
	if f.PasswordFlag {
		f.Password, offset, err = decodeBytes(buf, offset)
		if err != nil {
			return err
		}
	}

	return nil
}
