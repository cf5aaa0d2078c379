package packets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeAll(t *testing.T) [][]byte {
	t.Helper()

	var frames [][]byte
	add := func(size int, encode func([]byte) error) {
		buf := make([]byte, size)
		require.NoError(t, encode(buf))
		frames = append(frames, buf)
	}

	pub := HandshakePubPacket{Channel: 5, ClientID: "pub-1"}
	add(pub.Size(), pub.Encode)

	sub := HandshakeSubPacket{Channels: []byte{1, 7, 250}, ClientID: "sub-1"}
	add(sub.Size(), sub.Encode)

	ack := HandshakeAckPacket{Status: 0, SessionID: 42}
	add(ack.Size(), ack.Encode)

	msg := MessagePacket{Channel: 9, Timestamp: 1700000000123, Message: []byte("kickoff")}
	add(msg.Size(), msg.Encode)

	pb := PublishPacket{Channel: 3, Message: []byte("hello")}
	add(pb.Size(), pb.Encode)

	sc := SubscribePacket{Channel: 200}
	add(sc.Size(), sc.Encode)

	uc := UnsubscribePacket{Channel: 200}
	add(uc.Size(), uc.Encode)

	ep := ErrorPacket{Code: ErrCodeMessageTooLarge}
	add(ep.Size(), ep.Encode)

	for _, op := range []byte{Disconnect, Ping, Pong} {
		buf := make([]byte, HeaderSize)
		require.NoError(t, EncodeBare(buf, op))
		frames = append(frames, buf)
	}

	return frames
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, raw := range encodeAll(t) {
		fr, n, err := Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, len(raw), n)
		assert.Equal(t, raw[2], fr.Opcode)
		assert.Equal(t, len(raw)-HeaderSize, len(fr.Payload))
	}
}

func TestDecodeNeedMoreData(t *testing.T) {
	pk := PublishPacket{Channel: 1, Message: []byte("abcdef")}
	raw := make([]byte, pk.Size())
	require.NoError(t, pk.Encode(raw))

	for i := 0; i < len(raw); i++ {
		_, n, err := Decode(raw[:i])
		require.ErrorIs(t, err, ErrIncomplete, "prefix length %d", i)
		require.Zero(t, n)
	}
}

func TestDecodeChunkedStream(t *testing.T) {
	frames := encodeAll(t)
	var stream []byte
	for _, f := range frames {
		stream = append(stream, f...)
	}

	// Feed the stream in every fixed chunk size; the decoder must yield
	// the same frames in order and consume every byte.
	for _, chunk := range []int{1, 2, 3, 7, 8, 13, len(stream)} {
		var acc []byte
		var got [][]byte

		for off := 0; off < len(stream); off += chunk {
			end := off + chunk
			if end > len(stream) {
				end = len(stream)
			}
			acc = append(acc, stream[off:end]...)

			for {
				fr, n, err := Decode(acc)
				if err != nil {
					require.ErrorIs(t, err, ErrIncomplete)
					break
				}
				frame := make([]byte, n)
				copy(frame, acc)
				got = append(got, frame)
				_ = fr
				acc = acc[n:]
			}
		}

		require.Empty(t, acc, "chunk size %d left trailing bytes", chunk)
		require.Len(t, got, len(frames))
		for i := range frames {
			assert.True(t, bytes.Equal(frames[i], got[i]), "chunk size %d frame %d", chunk, i)
		}
	}
}

func TestDecodeBadMagic(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}
	_, n, err := Decode(raw)
	require.ErrorIs(t, err, ErrInvalidMagic)
	require.Zero(t, n)

	// A swapped magic is also invalid; only the exact 0xCA 0xFE pair counts.
	raw = []byte{0xFE, 0xCA, 0x01, 0x00, 0x00, 0x00, 0x00}
	_, _, err = Decode(raw)
	require.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeOversizeLength(t *testing.T) {
	raw := make([]byte, HeaderSize)
	putHeader(raw, Publish, MaxPayloadSize+1)
	_, n, err := Decode(raw)
	require.ErrorIs(t, err, ErrPayloadTooLarge)
	require.Zero(t, n)

	// A length of exactly MaxPayloadSize is still within bounds.
	putHeader(raw, Publish, MaxPayloadSize)
	_, _, err = Decode(raw)
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestHandshakeAckWireBytes(t *testing.T) {
	ack := HandshakeAckPacket{Status: 0, SessionID: 1}
	buf := make([]byte, ack.Size())
	require.NoError(t, ack.Encode(buf))

	want := []byte{
		0xCA, 0xFE, 0x03, 0x09, 0x00, 0x00, 0x00,
		0x00,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	require.Equal(t, want, buf)
}

func TestEncodeShortBuffer(t *testing.T) {
	pk := MessagePacket{Channel: 1, Timestamp: 99, Message: []byte("x")}
	err := pk.Encode(make([]byte, pk.Size()-1))
	require.ErrorIs(t, err, ErrShortBuffer)

	require.ErrorIs(t, EncodeBare(make([]byte, 6), Ping), ErrShortBuffer)
}
