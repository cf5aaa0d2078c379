package packets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandshakePub(t *testing.T) {
	pk := HandshakePubPacket{Channel: 7, ClientID: "abc"}
	buf := make([]byte, pk.Size())
	require.NoError(t, pk.Encode(buf))

	fr, n, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	require.Equal(t, HandshakePub, fr.Opcode)

	got, err := DecodeHandshakePub(fr.Payload)
	require.NoError(t, err)
	assert.Equal(t, pk, got)
}

func TestHandshakePubMalformed(t *testing.T) {
	tests := []struct {
		desc    string
		payload []byte
	}{
		{"empty", []byte{}},
		{"channel only", []byte{0x05}},
		{"id shorter than declared", []byte{0x05, 0x03, 'a'}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := DecodeHandshakePub(tt.payload)
			require.ErrorIs(t, err, ErrMalformedHandshakePub)
		})
	}
}

func TestHandshakeSub(t *testing.T) {
	pk := HandshakeSubPacket{Channels: []byte{0, 128, 255}, ClientID: "sub"}
	buf := make([]byte, pk.Size())
	require.NoError(t, pk.Encode(buf))

	fr, _, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, HandshakeSub, fr.Opcode)

	got, err := DecodeHandshakeSub(fr.Payload)
	require.NoError(t, err)
	assert.Equal(t, pk.Channels, got.Channels)
	assert.Equal(t, pk.ClientID, got.ClientID)
}

func TestHandshakeSubMalformed(t *testing.T) {
	_, err := DecodeHandshakeSub([]byte{})
	require.ErrorIs(t, err, ErrMalformedHandshakeSub)

	_, err = DecodeHandshakeSub([]byte{0x00, 0x00})
	require.ErrorIs(t, err, ErrNoChannels)

	// Declares 3 channels but carries only 1.
	_, err = DecodeHandshakeSub([]byte{0x03, 0x01})
	require.ErrorIs(t, err, ErrMalformedHandshakeSub)

	// Channels present, id length overruns the payload.
	_, err = DecodeHandshakeSub([]byte{0x01, 0x07, 0x05, 'a', 'b'})
	require.ErrorIs(t, err, ErrMalformedHandshakeSub)
}

func TestHandshakeEncodeLimits(t *testing.T) {
	long := make([]byte, 256)
	pub := HandshakePubPacket{Channel: 0, ClientID: string(long)}
	require.ErrorIs(t, pub.Encode(make([]byte, pub.Size())), ErrClientIDTooLong)

	sub := HandshakeSubPacket{Channels: nil, ClientID: "x"}
	require.ErrorIs(t, sub.Encode(make([]byte, 64)), ErrNoChannels)
}

func TestHandshakeAckRoundTrip(t *testing.T) {
	pk := HandshakeAckPacket{Status: 1, SessionID: 0xDEADBEEFCAFE}
	buf := make([]byte, pk.Size())
	require.NoError(t, pk.Encode(buf))

	fr, _, err := Decode(buf)
	require.NoError(t, err)

	got, err := DecodeHandshakeAck(fr.Payload)
	require.NoError(t, err)
	assert.Equal(t, pk, got)

	_, err = DecodeHandshakeAck(fr.Payload[:8])
	require.ErrorIs(t, err, ErrMalformedHandshakeAck)
}
