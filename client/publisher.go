package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/herald-mq/herald/packets"
)

// Publisher publishes messages on a single channel declared at
// handshake. It is safe for concurrent use.
type Publisher struct {
	mu        sync.Mutex
	opts      Options
	wire      *wire
	channel   byte
	sessionID uint64
	closed    bool
}

// DialPublisher connects to the broker, performs the publisher
// handshake on the given channel and waits for the acknowledgement.
func DialPublisher(ctx context.Context, channel byte, opts Options) (*Publisher, error) {
	opts.ensureDefaults()

	conn, err := dial(ctx, &opts)
	if err != nil {
		return nil, err
	}

	w := newWire(conn)
	hs := packets.HandshakePubPacket{Channel: channel, ClientID: opts.ClientID}
	if err := w.writeFrame(hs.Size(), hs.Encode); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send handshake: %w", err)
	}

	ack, err := awaitAck(w, opts.HandshakeTimeout)
	if err != nil {
		conn.Close()
		return nil, err
	}

	opts.Logger.Info("publisher connected",
		"address", conn.RemoteAddr().String(),
		"channel", channel,
		"session_id", ack.SessionID)

	return &Publisher{
		opts:      opts,
		wire:      w,
		channel:   channel,
		sessionID: ack.SessionID,
	}, nil
}

// SessionID returns the broker-assigned session id.
func (p *Publisher) SessionID() uint64 {
	return p.sessionID
}

// Channel returns the channel declared at handshake.
func (p *Publisher) Channel() byte {
	return p.channel
}

// Publish sends one message on the publisher's channel.
func (p *Publisher) Publish(message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	pk := packets.PublishPacket{Channel: p.channel, Message: message}
	return p.wire.writeFrame(pk.Size(), pk.Encode)
}

// Ping sends a PING and waits for the broker's PONG.
func (p *Publisher) Ping(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	buf := make([]byte, packets.HeaderSize)
	if err := packets.EncodeBare(buf, packets.Ping); err != nil {
		return err
	}
	if _, err := p.wire.conn.Write(buf); err != nil {
		return err
	}

	p.wire.conn.SetReadDeadline(time.Now().Add(timeout))
	defer p.wire.conn.SetReadDeadline(time.Time{})

	for {
		fr, err := p.wire.readFrame()
		if err != nil {
			return err
		}
		if fr.Opcode == packets.Pong {
			return nil
		}
	}
}

// Close sends a best-effort DISCONNECT and closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	sendDisconnect(p.wire)
	return p.wire.conn.Close()
}
