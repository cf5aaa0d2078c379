package packets

// HandshakePubPacket announces a publisher and the single channel it
// will publish on.
type HandshakePubPacket struct {
	Channel  byte
	ClientID string
}

// Size returns the exact encoded size of the frame.
func (p HandshakePubPacket) Size() int {
	return HeaderSize + 2 + len(p.ClientID)
}

// Encode writes the frame into buf, which must be at least Size() bytes.
func (p HandshakePubPacket) Encode(buf []byte) error {
	if len(p.ClientID) > MaxClientIDLen {
		return ErrClientIDTooLong
	}
	if len(buf) < p.Size() {
		return ErrShortBuffer
	}

	putHeader(buf, HandshakePub, uint32(2+len(p.ClientID)))
	buf[HeaderSize] = p.Channel
	buf[HeaderSize+1] = byte(len(p.ClientID))
	copy(buf[HeaderSize+2:], p.ClientID)
	return nil
}

// DecodeHandshakePub parses the payload of a HANDSHAKE_PUB frame.
func DecodeHandshakePub(payload []byte) (p HandshakePubPacket, err error) {
	if len(payload) < 2 {
		return p, ErrMalformedHandshakePub
	}

	idLen := int(payload[1])
	if len(payload) < 2+idLen {
		return p, ErrMalformedHandshakePub
	}

	p.Channel = payload[0]
	p.ClientID = string(payload[2 : 2+idLen])
	return p, nil
}

// HandshakeSubPacket announces a subscriber and its channels of interest.
type HandshakeSubPacket struct {
	Channels []byte
	ClientID string
}

// Size returns the exact encoded size of the frame.
func (p HandshakeSubPacket) Size() int {
	return HeaderSize + 1 + len(p.Channels) + 1 + len(p.ClientID)
}

// Encode writes the frame into buf, which must be at least Size() bytes.
func (p HandshakeSubPacket) Encode(buf []byte) error {
	if len(p.Channels) == 0 || len(p.Channels) > 255 {
		return ErrNoChannels
	}
	if len(p.ClientID) > MaxClientIDLen {
		return ErrClientIDTooLong
	}
	if len(buf) < p.Size() {
		return ErrShortBuffer
	}

	putHeader(buf, HandshakeSub, uint32(2+len(p.Channels)+len(p.ClientID)))
	i := HeaderSize
	buf[i] = byte(len(p.Channels))
	i++
	copy(buf[i:], p.Channels)
	i += len(p.Channels)
	buf[i] = byte(len(p.ClientID))
	i++
	copy(buf[i:], p.ClientID)
	return nil
}

// DecodeHandshakeSub parses the payload of a HANDSHAKE_SUB frame.
func DecodeHandshakeSub(payload []byte) (p HandshakeSubPacket, err error) {
	if len(payload) < 2 {
		return p, ErrMalformedHandshakeSub
	}

	count := int(payload[0])
	if count == 0 {
		return p, ErrNoChannels
	}
	if len(payload) < 1+count+1 {
		return p, ErrMalformedHandshakeSub
	}

	idLen := int(payload[1+count])
	if len(payload) < 1+count+1+idLen {
		return p, ErrMalformedHandshakeSub
	}

	p.Channels = payload[1 : 1+count]
	p.ClientID = string(payload[2+count : 2+count+idLen])
	return p, nil
}

// HandshakeAckPacket is the broker's reply to either handshake. Status 0
// indicates success; the session id echoes the broker's assignment.
type HandshakeAckPacket struct {
	Status    byte
	SessionID uint64
}

// Size returns the exact encoded size of the frame.
func (p HandshakeAckPacket) Size() int {
	return HeaderSize + 9
}

// Encode writes the frame into buf, which must be at least Size() bytes.
func (p HandshakeAckPacket) Encode(buf []byte) error {
	if len(buf) < p.Size() {
		return ErrShortBuffer
	}

	putHeader(buf, HandshakeAck, 9)
	buf[HeaderSize] = p.Status
	putUint64(buf[HeaderSize+1:], p.SessionID)
	return nil
}

// DecodeHandshakeAck parses the payload of a HANDSHAKE_ACK frame.
func DecodeHandshakeAck(payload []byte) (p HandshakeAckPacket, err error) {
	if len(payload) < 9 {
		return p, ErrMalformedHandshakeAck
	}

	p.Status = payload[0]
	p.SessionID = decodeUint64(payload[1:9])
	return p, nil
}
