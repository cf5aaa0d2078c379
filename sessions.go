package herald

import (
	"github.com/herald-mq/herald/packets"
	"github.com/herald-mq/herald/transport"
)

// Role is what a session declared itself to be at handshake.
type Role byte

const (
	RoleUnknown Role = iota
	RolePublisher
	RoleSubscriber
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RolePublisher:
		return "publisher"
	case RoleSubscriber:
		return "subscriber"
	}
	return "unknown"
}

// State is a session's lifecycle position.
type State byte

const (
	StateHandshake State = iota
	StateReady
	StateClosing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	}
	return "handshake"
}

const (
	// SendQueueCap bounds the outbound frame queue of every session.
	// Enqueues beyond the cap are dropped and counted, never blocking.
	SendQueueCap = 256

	// recvScratchSize is the size of the per-receive read buffer.
	recvScratchSize = 4096

	// maxHandshakeBuffer caps accumulation before a complete handshake
	// frame has arrived.
	maxHandshakeBuffer = 1024

	// maxRecvBuffer caps accumulation without a decodable frame.
	maxRecvBuffer = packets.MaxPayloadSize + packets.HeaderSize
)

// Bitmap records a session's channel interest, one bit per channel.
type Bitmap [4]uint64

// Set marks a channel.
func (b *Bitmap) Set(ch byte) {
	b[ch>>6] |= 1 << (ch & 63)
}

// Clear unmarks a channel.
func (b *Bitmap) Clear(ch byte) {
	b[ch>>6] &^= 1 << (ch & 63)
}

// Has reports whether a channel is marked.
func (b *Bitmap) Has(ch byte) bool {
	return b[ch>>6]&(1<<(ch&63)) != 0
}

// Channels returns the marked channels in ascending order.
func (b *Bitmap) Channels() []byte {
	var out []byte
	for ch := 0; ch < 256; ch++ {
		if b.Has(byte(ch)) {
			out = append(out, byte(ch))
		}
	}
	return out
}

// Session is the broker's record of one connected client (stream) or
// one recently-seen remote endpoint (datagram). All fields are owned by
// the engine goroutine; nothing here is safe for concurrent use.
type Session struct {
	Handle   uint32         // reactor routing key, assigned at creation
	ID       uint64         // broker-assigned session id, echoed in the handshake ack
	ClientID string         // human-readable identifier set during handshake
	Role     Role           // what the session declared itself to be
	State    State          // lifecycle position
	Link     transport.Link // stream connection; nil for datagram sessions
	Endpoint string         // datagram remote endpoint; empty for stream sessions
	Channels Bitmap         // channel interest
	Dropped  uint64         // outbound frames dropped at the full queue

	recv            []byte   // receive accumulator (stream only)
	scratch         []byte   // reactor read target (stream only)
	queue           [][]byte // bounded FIFO of encoded outbound frames
	sendBusy        bool     // one send in flight for this session
	closeAfterFlush bool     // tear down once the queue drains
}

// newSession returns a session in the handshake state.
func newSession(handle uint32, link transport.Link, endpoint string) *Session {
	s := &Session{
		Handle:   handle,
		Link:     link,
		Endpoint: endpoint,
	}
	if link != nil {
		s.scratch = make([]byte, recvScratchSize)
	}
	return s
}

// Enqueue appends an encoded frame to the outbound queue. It reports
// false, leaving the queue untouched, when the queue is at capacity.
func (s *Session) Enqueue(frame []byte) bool {
	if len(s.queue) >= SendQueueCap {
		s.Dropped++
		return false
	}

	s.queue = append(s.queue, frame)
	return true
}

// QueueLen returns the number of frames waiting to be sent.
func (s *Session) QueueLen() int {
	return len(s.queue)
}

// Sessions is the broker's session table, keyed by reactor handle with
// a secondary index by endpoint for datagram lookups. It is owned
// exclusively by the engine goroutine, so it takes no locks.
type Sessions struct {
	byHandle   map[uint32]*Session
	byEndpoint map[string]uint32
	order      []uint32 // creation order, for round-robin datagram sends
	nextHandle uint32
}

// NewSessions returns an empty session table.
func NewSessions() *Sessions {
	return &Sessions{
		byHandle:   make(map[uint32]*Session),
		byEndpoint: make(map[string]uint32),
	}
}

// Create inserts a new session for a stream link or datagram endpoint
// and returns it.
func (t *Sessions) Create(link transport.Link, endpoint string) *Session {
	t.nextHandle++
	s := newSession(t.nextHandle, link, endpoint)
	t.byHandle[s.Handle] = s
	if endpoint != "" {
		t.byEndpoint[endpoint] = s.Handle
	}
	t.order = append(t.order, s.Handle)
	return s
}

// Get returns the session for a handle.
func (t *Sessions) Get(handle uint32) (*Session, bool) {
	s, ok := t.byHandle[handle]
	return s, ok
}

// GetByEndpoint returns the session for a datagram endpoint.
func (t *Sessions) GetByEndpoint(endpoint string) (*Session, bool) {
	h, ok := t.byEndpoint[endpoint]
	if !ok {
		return nil, false
	}
	return t.byHandle[h], true
}

// Delete removes a session from the table.
func (t *Sessions) Delete(handle uint32) {
	s, ok := t.byHandle[handle]
	if !ok {
		return
	}

	delete(t.byHandle, handle)
	if s.Endpoint != "" {
		delete(t.byEndpoint, s.Endpoint)
	}
	for i, h := range t.order {
		if h == handle {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of live sessions.
func (t *Sessions) Len() int {
	return len(t.byHandle)
}

// Handles returns the live session handles in creation order. The
// returned slice is the table's own; callers must not retain it across
// mutations.
func (t *Sessions) Handles() []uint32 {
	return t.order
}
