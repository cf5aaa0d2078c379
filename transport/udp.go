package transport

import (
	"net"
	"sync"
	"sync/atomic"
)

// UDP is the connectionless transport. All peers share the one bound
// socket; ReadFrom tags each packet with its source endpoint and
// WriteTo addresses replies by endpoint string.
type UDP struct {
	conn    *net.UDPConn
	address string
	mu      sync.Mutex              // guards peers; receive and send ops run on separate goroutines
	peers   map[string]*net.UDPAddr // resolved endpoints seen or dialed
	end     atomic.Bool
}

// NewUDP returns an unbound UDP transport.
func NewUDP() *UDP {
	return &UDP{
		peers: make(map[string]*net.UDPAddr),
	}
}

// Kind reports that peers arrive as datagrams.
func (t *UDP) Kind() Kind {
	return Datagram
}

// Open binds the shared socket to address.
func (t *UDP) Open(address string) error {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return err
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}

	t.conn = conn
	t.address = conn.LocalAddr().String()
	return nil
}

// Accept is not available on a datagram transport.
func (t *UDP) Accept() (Link, error) {
	return nil, ErrNotStream
}

// ReadFrom blocks until one datagram arrives and records its source so
// later WriteTo calls need no address resolution.
func (t *UDP) ReadFrom(p []byte) (int, string, error) {
	n, addr, err := t.conn.ReadFromUDP(p)
	if err != nil {
		if t.end.Load() {
			return 0, "", ErrClosed
		}
		return 0, "", err
	}

	endpoint := addr.String()
	t.mu.Lock()
	if _, ok := t.peers[endpoint]; !ok {
		t.peers[endpoint] = addr
	}
	t.mu.Unlock()
	return n, endpoint, nil
}

// WriteTo sends one datagram to the named endpoint.
func (t *UDP) WriteTo(p []byte, endpoint string) (int, error) {
	t.mu.Lock()
	addr, ok := t.peers[endpoint]
	t.mu.Unlock()
	if !ok {
		resolved, err := net.ResolveUDPAddr("udp", endpoint)
		if err != nil {
			return 0, err
		}
		addr = resolved
		t.mu.Lock()
		t.peers[endpoint] = addr
		t.mu.Unlock()
	}

	return t.conn.WriteToUDP(p, addr)
}

// Address returns the bound socket address.
func (t *UDP) Address() string {
	return t.address
}

// Close releases the socket; a blocked ReadFrom returns ErrClosed.
func (t *UDP) Close() error {
	if t.end.CompareAndSwap(false, true) && t.conn != nil {
		return t.conn.Close()
	}
	return nil
}
