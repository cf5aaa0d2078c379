// Package client provides publisher and subscriber clients for a
// herald broker. Both speak the binary frame protocol over TCP or UDP
// and perform the role handshake on dial.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"log/slog"

	"github.com/rs/xid"

	"github.com/herald-mq/herald/packets"
)

const (
	// NetworkTCP selects the connection-oriented transport.
	NetworkTCP = "tcp"

	// NetworkUDP selects the connectionless transport. Delivery is
	// best-effort with whatever ordering the network provides.
	NetworkUDP = "udp"

	defaultHandshakeTimeout = 5 * time.Second
)

var (
	ErrHandshakeRefused = errors.New("broker refused handshake")
	ErrUnexpectedFrame  = errors.New("unexpected frame from broker")
	ErrClosed           = errors.New("client closed")
)

// Options contains configurable options for a client.
type Options struct {
	// Host is the broker address.
	Host string

	// Port is the broker port.
	Port int

	// Network selects tcp or udp.
	Network string

	// ClientID identifies this client to the broker. A fresh id is
	// generated when empty.
	ClientID string

	// HandshakeTimeout bounds the wait for the handshake ack.
	HandshakeTimeout time.Duration

	// Logger overrides the default slog configuration.
	Logger *slog.Logger
}

// ensureDefaults fills in the zero values.
func (o *Options) ensureDefaults() {
	if o.Host == "" {
		o.Host = "127.0.0.1"
	}
	if o.Port == 0 {
		o.Port = 5000
	}
	if o.Network == "" {
		o.Network = NetworkTCP
	}
	if o.ClientID == "" {
		o.ClientID = xid.New().String()
	}
	if o.HandshakeTimeout == 0 {
		o.HandshakeTimeout = defaultHandshakeTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
}

// wire wraps a connection with a decode accumulator.
type wire struct {
	conn    net.Conn
	acc     []byte
	scratch []byte
}

func newWire(conn net.Conn) *wire {
	return &wire{
		conn:    conn,
		scratch: make([]byte, 4096),
	}
}

// writeFrame encodes one frame into a fresh buffer and writes it.
func (w *wire) writeFrame(size int, encode func([]byte) error) error {
	buf := make([]byte, size)
	if err := encode(buf); err != nil {
		return err
	}

	_, err := w.conn.Write(buf)
	return err
}

// readFrame blocks until one whole frame is available. The returned
// payload is detached from the accumulator.
func (w *wire) readFrame() (packets.Frame, error) {
	for {
		fr, n, err := packets.Decode(w.acc)
		if err == nil {
			payload := make([]byte, len(fr.Payload))
			copy(payload, fr.Payload)
			fr.Payload = payload
			w.acc = w.acc[:copy(w.acc, w.acc[n:])]
			return fr, nil
		}
		if !errors.Is(err, packets.ErrIncomplete) {
			return packets.Frame{}, err
		}

		nr, err := w.conn.Read(w.scratch)
		if err != nil {
			return packets.Frame{}, err
		}
		w.acc = append(w.acc, w.scratch[:nr]...)
	}
}

// dial connects to the broker named by the options.
func dial(ctx context.Context, opts *Options) (net.Conn, error) {
	addr := net.JoinHostPort(opts.Host, fmt.Sprintf("%d", opts.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, opts.Network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s %s: %w", opts.Network, addr, err)
	}
	return conn, nil
}

// awaitAck reads frames until the handshake ack arrives.
func awaitAck(w *wire, timeout time.Duration) (packets.HandshakeAckPacket, error) {
	w.conn.SetReadDeadline(time.Now().Add(timeout))
	defer w.conn.SetReadDeadline(time.Time{})

	fr, err := w.readFrame()
	if err != nil {
		return packets.HandshakeAckPacket{}, err
	}

	switch fr.Opcode {
	case packets.HandshakeAck:
		ack, err := packets.DecodeHandshakeAck(fr.Payload)
		if err != nil {
			return packets.HandshakeAckPacket{}, err
		}
		if ack.Status != 0 {
			return ack, fmt.Errorf("%w: status %d", ErrHandshakeRefused, ack.Status)
		}
		return ack, nil
	case packets.Error:
		ep, _ := packets.DecodeError(fr.Payload)
		return packets.HandshakeAckPacket{}, fmt.Errorf("%w: error code %#02x", ErrHandshakeRefused, ep.Code)
	default:
		return packets.HandshakeAckPacket{}, fmt.Errorf("%w: %s before ack", ErrUnexpectedFrame, packets.Names[fr.Opcode])
	}
}

// sendDisconnect writes a best-effort DISCONNECT frame.
func sendDisconnect(w *wire) {
	buf := make([]byte, packets.HeaderSize)
	if packets.EncodeBare(buf, packets.Disconnect) == nil {
		w.conn.SetWriteDeadline(time.Now().Add(time.Second))
		w.conn.Write(buf)
	}
}
