package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/herald-mq/herald/packets"
)

// Message is one delivery received by a subscriber.
type Message struct {
	Channel   byte
	Timestamp time.Time // the broker's clock at routing time
	Body      []byte
}

// Subscriber receives timestamped message copies for the channels it
// registered interest in.
type Subscriber struct {
	mu        sync.Mutex
	opts      Options
	wire      *wire
	sessionID uint64
	messages  chan Message
	done      chan struct{}
	quit      chan struct{}
	closed    bool
}

// DialSubscriber connects to the broker, performs the subscriber
// handshake for the given channels and starts the receive loop. At
// least one channel is required.
func DialSubscriber(ctx context.Context, channels []byte, opts Options) (*Subscriber, error) {
	if len(channels) == 0 {
		return nil, packets.ErrNoChannels
	}
	opts.ensureDefaults()

	conn, err := dial(ctx, &opts)
	if err != nil {
		return nil, err
	}

	w := newWire(conn)
	hs := packets.HandshakeSubPacket{Channels: channels, ClientID: opts.ClientID}
	if err := w.writeFrame(hs.Size(), hs.Encode); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send handshake: %w", err)
	}

	ack, err := awaitAck(w, opts.HandshakeTimeout)
	if err != nil {
		conn.Close()
		return nil, err
	}

	opts.Logger.Info("subscriber connected",
		"address", conn.RemoteAddr().String(),
		"channels", channels,
		"session_id", ack.SessionID)

	s := &Subscriber{
		opts:      opts,
		wire:      w,
		sessionID: ack.SessionID,
		messages:  make(chan Message, 256),
		done:      make(chan struct{}),
		quit:      make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// SessionID returns the broker-assigned session id.
func (s *Subscriber) SessionID() uint64 {
	return s.sessionID
}

// Messages returns the delivery channel. It is closed when the
// connection ends.
func (s *Subscriber) Messages() <-chan Message {
	return s.messages
}

// readLoop decodes frames off the connection and forwards message
// deliveries until the connection ends.
func (s *Subscriber) readLoop() {
	defer close(s.messages)
	defer close(s.done)

	for {
		fr, err := s.wire.readFrame()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.opts.Logger.Debug("receive loop ended", "error", err)
			}
			return
		}

		switch fr.Opcode {
		case packets.Message:
			mp, err := packets.DecodeMessage(fr.Payload)
			if err != nil {
				s.opts.Logger.Warn("dropping malformed message frame", "error", err)
				continue
			}
			select {
			case s.messages <- Message{
				Channel:   mp.Channel,
				Timestamp: time.UnixMilli(int64(mp.Timestamp)),
				Body:      mp.Message,
			}:
			case <-s.quit:
				return
			}
		case packets.Pong:
			// Keepalive replies need no action.
		case packets.Error:
			ep, _ := packets.DecodeError(fr.Payload)
			s.opts.Logger.Warn("broker reported error", "code", ep.Code)
		default:
			s.opts.Logger.Debug("ignoring unexpected frame", "opcode", fr.Opcode)
		}
	}
}

// Subscribe adds a channel to the subscription set.
func (s *Subscriber) Subscribe(channel byte) error {
	pk := packets.SubscribePacket{Channel: channel}
	return s.writeLocked(pk.Size(), pk.Encode)
}

// Unsubscribe removes a channel from the subscription set.
func (s *Subscriber) Unsubscribe(channel byte) error {
	pk := packets.UnsubscribePacket{Channel: channel}
	return s.writeLocked(pk.Size(), pk.Encode)
}

func (s *Subscriber) writeLocked(size int, encode func([]byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return s.wire.writeFrame(size, encode)
}

// Close sends a best-effort DISCONNECT, closes the connection and
// waits for the receive loop to finish.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.quit)
	sendDisconnect(s.wire)
	err := s.wire.conn.Close()
	s.mu.Unlock()

	<-s.done
	return err
}
