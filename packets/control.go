package packets

// SubscribePacket adds one channel to a subscriber's interest set.
type SubscribePacket struct {
	Channel byte
}

// Size returns the exact encoded size of the frame.
func (p SubscribePacket) Size() int {
	return HeaderSize + 1
}

// Encode writes the frame into buf, which must be at least Size() bytes.
func (p SubscribePacket) Encode(buf []byte) error {
	if len(buf) < p.Size() {
		return ErrShortBuffer
	}

	putHeader(buf, Subscribe, 1)
	buf[HeaderSize] = p.Channel
	return nil
}

// DecodeSubscribe parses the payload of a SUBSCRIBE frame.
func DecodeSubscribe(payload []byte) (p SubscribePacket, err error) {
	if len(payload) < 1 {
		return p, ErrMalformedSubscribe
	}

	p.Channel = payload[0]
	return p, nil
}

// UnsubscribePacket removes one channel from a subscriber's interest set.
type UnsubscribePacket struct {
	Channel byte
}

// Size returns the exact encoded size of the frame.
func (p UnsubscribePacket) Size() int {
	return HeaderSize + 1
}

// Encode writes the frame into buf, which must be at least Size() bytes.
func (p UnsubscribePacket) Encode(buf []byte) error {
	if len(buf) < p.Size() {
		return ErrShortBuffer
	}

	putHeader(buf, Unsubscribe, 1)
	buf[HeaderSize] = p.Channel
	return nil
}

// DecodeUnsubscribe parses the payload of an UNSUBSCRIBE frame.
func DecodeUnsubscribe(payload []byte) (p UnsubscribePacket, err error) {
	if len(payload) < 1 {
		return p, ErrMalformedSubscribe
	}

	p.Channel = payload[0]
	return p, nil
}

// EncodeBare writes a payloadless frame (DISCONNECT, PING, PONG) into
// buf, which must be at least HeaderSize bytes.
func EncodeBare(buf []byte, opcode byte) error {
	if len(buf) < HeaderSize {
		return ErrShortBuffer
	}

	putHeader(buf, opcode, 0)
	return nil
}

// ErrorPacket reports a protocol violation to the peer.
type ErrorPacket struct {
	Code byte
}

// Size returns the exact encoded size of the frame.
func (p ErrorPacket) Size() int {
	return HeaderSize + 1
}

// Encode writes the frame into buf, which must be at least Size() bytes.
func (p ErrorPacket) Encode(buf []byte) error {
	if len(buf) < p.Size() {
		return ErrShortBuffer
	}

	putHeader(buf, Error, 1)
	buf[HeaderSize] = p.Code
	return nil
}

// DecodeError parses the payload of an ERROR frame.
func DecodeError(payload []byte) (p ErrorPacket, err error) {
	if len(payload) < 1 {
		return p, ErrMalformedError
	}

	p.Code = payload[0]
	return p, nil
}
