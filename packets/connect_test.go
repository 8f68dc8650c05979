package packets

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestConnectCapture reproduces the worked example from the wire-format
// section of the protocol notes: clientId="test", willTopic="test/topic",
// willMessage="test death", keep-alive=60, willFlag=true, willQoS=1,
// willRetain=true.
func TestConnectCapture(t *testing.T) {
	want := mustHex(t, "10 2a 00 06 4d 51 49 73 64 70 03 2c 00 3c 00 04 74 65 73 74 00 0a 74 65 73 74 2f 74 6f 70 69 63 00 0a 74 65 73 74 20 64 65 61 74 68")

	f := &ConnectFrame{
		ClientID:    "test",
		KeepAlive:   60,
		WillFlag:    true,
		WillTopic:   "test/topic",
		WillMessage: []byte("test death"),
		WillQos:     AtLeastOnce,
		WillRetain:  true,
	}

	got, err := Encode(f)
	require.NoError(t, err)
	require.Equal(t, want, got)

	decoded, err := Decode(got)
	require.NoError(t, err)
	round := decoded.(*ConnectFrame)
	require.Equal(t, f.ClientID, round.ClientID)
	require.Equal(t, f.KeepAlive, round.KeepAlive)
	require.True(t, round.WillFlag)
	require.Equal(t, f.WillTopic, round.WillTopic)
	require.Equal(t, f.WillMessage, round.WillMessage)
	require.Equal(t, f.WillQos, round.WillQos)
	require.True(t, round.WillRetain)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}
