package packets

import "errors"

var (
	ErrIncomplete      = errors.New("incomplete frame, need more data")
	ErrInvalidMagic    = errors.New("invalid frame magic")
	ErrPayloadTooLarge = errors.New("frame payload exceeds maximum size")
	ErrShortBuffer     = errors.New("destination buffer too small for frame")

	ErrMalformedHandshakePub = errors.New("malformed HANDSHAKE_PUB payload")
	ErrMalformedHandshakeSub = errors.New("malformed HANDSHAKE_SUB payload")
	ErrMalformedHandshakeAck = errors.New("malformed HANDSHAKE_ACK payload")
	ErrMalformedPublish      = errors.New("malformed PUBLISH payload")
	ErrMalformedMessage      = errors.New("malformed MESSAGE payload")
	ErrMalformedSubscribe    = errors.New("malformed SUBSCRIBE payload")
	ErrMalformedError        = errors.New("malformed ERROR payload")

	ErrClientIDTooLong = errors.New("client id exceeds 255 bytes")
	ErrNoChannels      = errors.New("handshake carries no channels")
	ErrMessageTooLarge = errors.New("message exceeds maximum publishable size")
)
