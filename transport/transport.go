// Package transport abstracts the network substrate the broker runs
// on. A stream transport accepts per-peer links which preserve byte
// order; a datagram transport exchanges whole packets on one shared
// socket, with peers identified by their remote endpoint. The codec,
// session machine, and router above this package are transport
// agnostic.
package transport

import (
	"errors"
	"io"
	"net"
)

// Kind discriminates the two transport shapes.
type Kind byte

const (
	Stream Kind = iota
	Datagram
)

// String returns the kind name.
func (k Kind) String() string {
	if k == Datagram {
		return "datagram"
	}
	return "stream"
}

var (
	ErrNotStream   = errors.New("operation requires a stream transport")
	ErrNotDatagram = errors.New("operation requires a datagram transport")
	ErrClosed      = errors.New("transport closed")
)

// Link is one established stream connection to a peer.
type Link interface {
	io.ReadWriteCloser
	RemoteAddr() net.Addr
}

// Transport is a bound network endpoint the broker serves on.
//
// Stream transports implement Accept and return ErrNotDatagram from
// ReadFrom/WriteTo; datagram transports do the reverse. Open must be
// called before any other method.
type Transport interface {
	// Kind reports whether peers arrive as links or as datagrams.
	Kind() Kind

	// Open binds the transport to the given host:port address.
	Open(address string) error

	// Accept blocks until a new stream link is established.
	Accept() (Link, error)

	// ReadFrom blocks until one datagram arrives, copies it into p and
	// returns the source endpoint.
	ReadFrom(p []byte) (n int, endpoint string, err error)

	// WriteTo sends one datagram to the named endpoint.
	WriteTo(p []byte, endpoint string) (n int, err error)

	// Address returns the bound address, usable for dialing back.
	Address() string

	// Close releases the socket. Blocked Accept/ReadFrom calls return.
	Close() error
}
