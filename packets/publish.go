package packets

// PublishPacket carries a message from a publisher to the broker.
type PublishPacket struct {
	Channel byte
	Message []byte
}

// Size returns the exact encoded size of the frame.
func (p PublishPacket) Size() int {
	return HeaderSize + 1 + len(p.Message)
}

// Encode writes the frame into buf, which must be at least Size() bytes.
func (p PublishPacket) Encode(buf []byte) error {
	if len(p.Message) > MaxMessageSize {
		return ErrMessageTooLarge
	}
	if len(buf) < p.Size() {
		return ErrShortBuffer
	}

	putHeader(buf, Publish, uint32(1+len(p.Message)))
	buf[HeaderSize] = p.Channel
	copy(buf[HeaderSize+1:], p.Message)
	return nil
}

// DecodePublish parses the payload of a PUBLISH frame. The message is a
// view over the payload.
func DecodePublish(payload []byte) (p PublishPacket, err error) {
	if len(payload) < 1 {
		return p, ErrMalformedPublish
	}

	p.Channel = payload[0]
	p.Message = payload[1:]
	return p, nil
}

// MessagePacket is the broker's timestamped copy of a publish, fanned
// out to each interested subscriber.
type MessagePacket struct {
	Channel   byte
	Timestamp uint64 // milliseconds since the Unix epoch
	Message   []byte
}

// Size returns the exact encoded size of the frame.
func (p MessagePacket) Size() int {
	return HeaderSize + 1 + 8 + len(p.Message)
}

// Encode writes the frame into buf, which must be at least Size() bytes.
func (p MessagePacket) Encode(buf []byte) error {
	if len(buf) < p.Size() {
		return ErrShortBuffer
	}

	putHeader(buf, Message, uint32(9+len(p.Message)))
	buf[HeaderSize] = p.Channel
	putUint64(buf[HeaderSize+1:], p.Timestamp)
	copy(buf[HeaderSize+9:], p.Message)
	return nil
}

// DecodeMessage parses the payload of a MESSAGE frame. The message is a
// view over the payload.
func DecodeMessage(payload []byte) (p MessagePacket, err error) {
	if len(payload) < 9 {
		return p, ErrMalformedMessage
	}

	p.Channel = payload[0]
	p.Timestamp = decodeUint64(payload[1:9])
	p.Message = payload[9:]
	return p, nil
}
