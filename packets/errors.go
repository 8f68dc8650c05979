package packets

import "errors"

// Connect return codes, as carried in a Connack packet.
const (
	Accepted byte = 0x00

	CodeConnectBadProtocolVersion byte = 0x01
	CodeConnectBadClientID        byte = 0x02
	CodeConnectServerUnavailable  byte = 0x03
	CodeConnectBadAuthValues      byte = 0x04
	CodeConnectNotAuthorised      byte = 0x05
)

var (
	// remaining-length and fixed-header framing
	ErrRemainingLengthTooLong    = errors.New("packets: remaining length field exceeds four bytes")
	ErrRemainingLengthOutOfRange = errors.New("packets: remaining length value out of range")
	ErrInvalidFlags              = errors.New("packets: invalid flags for packet type")
	ErrUnknownPacketType         = errors.New("packets: unknown packet type")
	ErrTruncatedPayload          = errors.New("packets: payload shorter than declared remaining length")

	// offset decoding
	ErrOffsetByteOutOfRange  = errors.New("packets: offset byte out of range")
	ErrOffsetBoolOutOfRange  = errors.New("packets: offset bool out of range")
	ErrOffsetUintOutOfRange  = errors.New("packets: offset uint out of range")
	ErrOffsetBytesOutOfRange = errors.New("packets: offset bytes out of range")
	ErrOffsetStrInvalidUTF8  = errors.New("packets: offset string invalid utf8")

	// per-packet malformations
	ErrMalformedProtocolName = errors.New("packets: malformed protocol name")
	ErrMalformedReturnCode   = errors.New("packets: malformed connack return code")
	ErrMalformedPacketID     = errors.New("packets: malformed packet id")
	ErrMissingPacketID       = errors.New("packets: qos > 0 requires a packet id")

	// errNeedMoreBytes is internal: it signals that the buffer was
	// exhausted while scanning the remaining-length field itself, which is
	// not a malformed stream, just an incomplete one.
	errNeedMoreBytes = errors.New("packets: need more bytes")
)
