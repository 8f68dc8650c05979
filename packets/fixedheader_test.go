package packets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemainingLengthBoundaries(t *testing.T) {
	tt := []struct {
		value int
		bytes []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{16_383, []byte{0xff, 0x7f}},
		{16_384, []byte{0x80, 0x80, 0x01}},
		{2_097_151, []byte{0xff, 0xff, 0x7f}},
		{2_097_152, []byte{0x80, 0x80, 0x80, 0x01}},
		{268_435_455, []byte{0xff, 0xff, 0xff, 0x7f}},
	}

	for _, tc := range tt {
		var buf bytes.Buffer
		require.NoError(t, encodeRemainingLength(&buf, tc.value))
		require.Equal(t, tc.bytes, buf.Bytes())

		decoded, next, err := decodeRemainingLength(append(buf.Bytes(), 0xAA), 0)
		require.NoError(t, err)
		require.Equal(t, tc.value, decoded)
		require.Equal(t, len(tc.bytes), next)
	}
}

func TestRemainingLengthOutOfRange(t *testing.T) {
	var buf bytes.Buffer
	require.ErrorIs(t, encodeRemainingLength(&buf, -1), ErrRemainingLengthOutOfRange)
	require.ErrorIs(t, encodeRemainingLength(&buf, 268_435_456), ErrRemainingLengthOutOfRange)
}

func TestRemainingLengthTooLong(t *testing.T) {
	// Four continuation bytes followed by a fifth length byte: the field
	// would be five bytes long.
	buf := []byte{0x80, 0x80, 0x80, 0x80, 0x01}
	_, _, err := decodeRemainingLength(buf, 0)
	require.ErrorIs(t, err, ErrRemainingLengthTooLong)
}

func TestFixedHeaderDecodeInvalidFlags(t *testing.T) {
	var fh FixedHeader
	// Connack (type 2) must carry zero flags; 0x21 sets bit 0.
	err := fh.Decode(0x21)
	require.ErrorIs(t, err, ErrInvalidFlags)
}
