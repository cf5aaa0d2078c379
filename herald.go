// Package herald provides a lightweight publish/subscribe message
// broker speaking a compact binary wire protocol over stream and
// datagram transports. Publishers push messages on a numeric channel;
// subscribers that registered interest in that channel receive a
// timestamped copy. Delivery is best-effort and strictly in-flight:
// nothing is persisted, and a slow subscriber loses messages rather
// than stalling the producer.
package herald

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/herald-mq/herald/reactor"
	"github.com/herald-mq/herald/system"
	"github.com/herald-mq/herald/transport"

	"log/slog"
)

const Version = "1.2.0" // the current broker version.

var (
	ErrNotSetup         = errors.New("broker transport not set up, call Setup first")
	ErrUnknownTransport = errors.New("unknown transport kind")
	ErrAlreadyServing   = errors.New("broker is already serving")
)

// Transport kind names accepted by Options.Transport.
const (
	TransportTCP = "tcp"
	TransportUDP = "udp"
	TransportWS  = "ws"
)

// Options contains configurable options for the broker.
type Options struct {
	// Host is the IPv4 address to bind to.
	Host string `yaml:"host" json:"host"`

	// Port is the TCP or UDP port to bind to.
	Port int `yaml:"port" json:"port"`

	// Transport selects the transport kind: tcp, udp or ws.
	Transport string `yaml:"transport" json:"transport"`

	// QueueDepth bounds the reactor's in-flight operations.
	QueueDepth int `yaml:"queue_depth" json:"queue_depth"`

	// Logger overrides the broker's default slog configuration.
	Logger *slog.Logger `yaml:"-" json:"-"`
}

// ensureDefaults ensures the broker starts with sane default values.
func (o *Options) ensureDefaults() {
	if o.Host == "" {
		o.Host = "127.0.0.1"
	}
	if o.Port == 0 {
		o.Port = 5000
	}
	if o.Transport == "" {
		o.Transport = TransportTCP
	}
	if o.QueueDepth == 0 {
		o.QueueDepth = reactor.DefaultDepth
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
}

// Server is a herald broker. All mutable broker state - the session
// table, the routing table, the session id counter - is owned by the
// single goroutine running Serve; handlers never block on I/O, and the
// reactor wait is the loop's only suspension point.
type Server struct {
	Options  *Options      // configurable broker options
	Sessions *Sessions     // sessions known to the broker
	Router   *Router       // channel -> subscriber fan-out table
	Info     *system.Info  // runtime statistics
	Log      *slog.Logger  // structured logger
	hooks    *Hooks        // event hooks
	ring     *reactor.Ring // completion-driven I/O queue

	tr          transport.Transport
	sessionIDs  uint64 // next session id to assign at handshake
	serving     atomic.Bool
	dgramBuf    []byte // shared datagram receive buffer
	dgramBusy   bool   // one datagram send in flight globally
	dgramCursor int    // round-robin position over session handles
}

// New returns a new broker instance. Optional parameters can be
// specified to override default settings (see Options).
func New(opts *Options) *Server {
	if opts == nil {
		opts = new(Options)
	}
	opts.ensureDefaults()

	return &Server{
		Options:  opts,
		Sessions: NewSessions(),
		Router:   NewRouter(),
		Log:      opts.Logger,
		Info: &system.Info{
			Version: Version,
			Started: time.Now().Unix(),
		},
		hooks: &Hooks{
			Log: opts.Logger,
		},
		ring:       reactor.New(opts.QueueDepth),
		sessionIDs: 1,
	}
}

// AddHook attaches a hook to the broker. Hooks should be added before
// Serve is called.
func (s *Server) AddHook(hook Hook) {
	s.Log.Info("added hook", "hook", hook.ID())
	s.hooks.Add(hook)
}

// UseTransport installs a pre-built transport, mainly for tests using
// the mock. It must be called before Setup.
func (s *Server) UseTransport(tr transport.Transport) {
	s.tr = tr
}

// Setup creates and binds the broker transport from Options. For the
// stream transports this binds and begins listening; for the datagram
// transport it binds only.
func (s *Server) Setup() error {
	if s.tr == nil {
		switch s.Options.Transport {
		case TransportTCP:
			s.tr = transport.NewTCP()
		case TransportUDP:
			s.tr = transport.NewUDP()
		case TransportWS:
			s.tr = transport.NewWS()
		default:
			return fmt.Errorf("%w: %q", ErrUnknownTransport, s.Options.Transport)
		}

		addr := fmt.Sprintf("%s:%d", s.Options.Host, s.Options.Port)
		if err := s.tr.Open(addr); err != nil {
			return fmt.Errorf("open %s transport on %s: %w", s.Options.Transport, addr, err)
		}
	}

	if s.tr.Kind() == transport.Datagram {
		s.dgramBuf = make([]byte, recvScratchSize)
	}

	s.Log.Info("broker listening", "transport", s.Options.Transport, "address", s.tr.Address())
	return nil
}

// Address returns the bound transport address.
func (s *Server) Address() string {
	if s.tr == nil {
		return ""
	}
	return s.tr.Address()
}

// Serve runs the event loop until the context is cancelled. Each
// iteration flushes pending submissions, waits for exactly one
// completion and dispatches it by tag.
func (s *Server) Serve(ctx context.Context) error {
	if s.tr == nil {
		return ErrNotSetup
	}
	if !s.serving.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}
	defer s.serving.Store(false)

	s.Log.Info("herald broker starting", "version", Version)
	s.hooks.OnStarted()

	if s.tr.Kind() == transport.Stream {
		s.submitAccept()
	} else {
		s.submitDatagramRecv()
	}

	for {
		s.ring.Flush()

		c, ok := s.ring.Wait(ctx)
		if !ok {
			break
		}

		now := time.Now().Unix()
		atomic.StoreInt64(&s.Info.Time, now)
		atomic.StoreInt64(&s.Info.Uptime, now-atomic.LoadInt64(&s.Info.Started))
		s.dispatch(c)
	}

	s.Log.Info("event loop halted")
	s.hooks.OnStopped()
	return nil
}

// dispatch routes one completion by its tag.
func (s *Server) dispatch(c reactor.Completion) {
	switch c.Tag.Op() {
	case reactor.Accept:
		s.onAccept(c)
	case reactor.Recv:
		if s.tr.Kind() == transport.Stream {
			s.onRecv(c)
		} else {
			s.onDatagramRecv(c)
		}
	case reactor.Send:
		if s.tr.Kind() == transport.Stream {
			s.onSend(c)
		} else {
			s.onDatagramSend(c)
		}
	}
}

// Close destroys all sessions and releases the transport socket. It is
// called after Serve has returned; pending sends are abandoned.
func (s *Server) Close() error {
	for _, h := range append([]uint32(nil), s.Sessions.Handles()...) {
		if sess, ok := s.Sessions.Get(h); ok {
			s.closeSession(sess)
		}
	}

	if s.tr != nil {
		return s.tr.Close()
	}
	return nil
}

// nextSessionID assigns the next monotonically increasing session id.
func (s *Server) nextSessionID() uint64 {
	id := s.sessionIDs
	s.sessionIDs++
	return id
}
