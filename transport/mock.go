package transport

import (
	"net"
	"sync/atomic"
)

// Packet is one datagram recorded or injected through a mock transport.
type Packet struct {
	Endpoint string
	Data     []byte
}

// Mock is an in-memory transport for tests. In stream mode, Dial
// produces a synchronous pipe whose far side is handed to Accept. In
// datagram mode, Inject feeds inbound packets and Outbound exposes
// everything the broker sends.
type Mock struct {
	kind     Kind
	accepted chan Link
	inbound  chan Packet
	outbound chan Packet
	end      atomic.Bool
}

// NewMock returns an open mock transport of the given kind.
func NewMock(kind Kind) *Mock {
	return &Mock{
		kind:     kind,
		accepted: make(chan Link, 32),
		inbound:  make(chan Packet, 256),
		outbound: make(chan Packet, 256),
	}
}

// Kind reports the mock's configured kind.
func (m *Mock) Kind() Kind {
	return m.kind
}

// Open is a no-op; the mock is bound at construction.
func (m *Mock) Open(address string) error {
	return nil
}

// Dial connects a new peer to a stream mock and returns the peer's end.
func (m *Mock) Dial() (net.Conn, error) {
	if m.kind != Stream {
		return nil, ErrNotStream
	}
	if m.end.Load() {
		return nil, ErrClosed
	}

	peer, server := net.Pipe()
	m.accepted <- server
	return peer, nil
}

// Accept blocks until a peer dials in.
func (m *Mock) Accept() (Link, error) {
	if m.kind != Stream {
		return nil, ErrNotStream
	}

	l, ok := <-m.accepted
	if !ok {
		return nil, ErrClosed
	}
	return l, nil
}

// Inject delivers one inbound datagram from the named endpoint.
func (m *Mock) Inject(endpoint string, data []byte) {
	d := make([]byte, len(data))
	copy(d, data)
	m.inbound <- Packet{Endpoint: endpoint, Data: d}
}

// ReadFrom blocks until an injected datagram is available.
func (m *Mock) ReadFrom(p []byte) (int, string, error) {
	if m.kind != Datagram {
		return 0, "", ErrNotDatagram
	}

	pkt, ok := <-m.inbound
	if !ok {
		return 0, "", ErrClosed
	}
	return copy(p, pkt.Data), pkt.Endpoint, nil
}

// WriteTo records one outbound datagram.
func (m *Mock) WriteTo(p []byte, endpoint string) (int, error) {
	if m.kind != Datagram {
		return 0, ErrNotDatagram
	}
	if m.end.Load() {
		return 0, ErrClosed
	}

	d := make([]byte, len(p))
	copy(d, p)
	m.outbound <- Packet{Endpoint: endpoint, Data: d}
	return len(p), nil
}

// Outbound exposes the datagrams the broker has sent.
func (m *Mock) Outbound() <-chan Packet {
	return m.outbound
}

// Address returns a fixed placeholder address.
func (m *Mock) Address() string {
	return "mock"
}

// Close wakes any blocked Accept or ReadFrom.
func (m *Mock) Close() error {
	if m.end.CompareAndSwap(false, true) {
		close(m.accepted)
		close(m.inbound)
	}
	return nil
}
