package transport

import (
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrInvalidMessage indicates that a websocket message was not binary.
var ErrInvalidMessage = errors.New("message type not binary")

// WS is a stream-kind transport carrying frames over websocket binary
// messages. Each upgraded connection becomes one link, so the broker
// treats websocket peers exactly like TCP peers.
type WS struct {
	server   *http.Server
	listener net.Listener
	address  string
	upgrader websocket.Upgrader
	accepted chan Link
	end      atomic.Bool
}

// NewWS returns an unbound websocket transport.
func NewWS() *WS {
	return &WS{
		upgrader: websocket.Upgrader{
			Subprotocols: []string{"herald"},
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		accepted: make(chan Link, 32),
	}
}

// Kind reports that peers arrive as links.
func (t *WS) Kind() Kind {
	return Stream
}

// Open binds the HTTP listener and starts upgrading connections.
func (t *WS) Open(address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", t.handler)
	t.listener = l
	t.address = l.Addr().String()
	t.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 60 * time.Second,
	}

	go t.server.Serve(l)
	return nil
}

// handler upgrades an incoming connection and queues it for Accept.
func (t *WS) handler(w http.ResponseWriter, r *http.Request) {
	c, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	if t.end.Load() {
		c.Close()
		return
	}
	t.accepted <- &wsLink{Conn: c.UnderlyingConn(), ws: c}
}

// Accept blocks until the next websocket connection is upgraded.
func (t *WS) Accept() (Link, error) {
	l, ok := <-t.accepted
	if !ok {
		return nil, ErrClosed
	}
	return l, nil
}

// ReadFrom is not available on a stream transport.
func (t *WS) ReadFrom(p []byte) (int, string, error) {
	return 0, "", ErrNotDatagram
}

// WriteTo is not available on a stream transport.
func (t *WS) WriteTo(p []byte, endpoint string) (int, error) {
	return 0, ErrNotDatagram
}

// Address returns the bound listen address.
func (t *WS) Address() string {
	return t.address
}

// Close shuts the HTTP listener down; a blocked Accept returns.
func (t *WS) Close() error {
	if t.end.CompareAndSwap(false, true) {
		close(t.accepted)
		if t.server != nil {
			return t.server.Close()
		}
	}
	return nil
}

// wsLink adapts a websocket connection to the Link interface, mapping
// binary messages onto the byte stream the codec expects.
type wsLink struct {
	net.Conn
	ws *websocket.Conn
	r  io.Reader // current partially-consumed message, if any
}

// Read reads the next span of bytes from the websocket connection.
func (l *wsLink) Read(p []byte) (int, error) {
	for {
		if l.r == nil {
			op, r, err := l.ws.NextReader()
			if err != nil {
				return 0, err
			}
			if op != websocket.BinaryMessage {
				return 0, ErrInvalidMessage
			}
			l.r = r
		}

		n, err := l.r.Read(p)
		if errors.Is(err, io.EOF) {
			l.r = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

// Write writes one binary message to the websocket connection.
func (l *wsLink) Write(p []byte) (int, error) {
	if err := l.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the underlying connection.
func (l *wsLink) Close() error {
	return l.Conn.Close()
}
