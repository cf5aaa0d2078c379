package herald

import (
	"errors"
	"sync/atomic"

	"github.com/herald-mq/herald/packets"
	"github.com/herald-mq/herald/reactor"
	"github.com/herald-mq/herald/transport"
)

// submitDatagramRecv arms the single outstanding receive on the shared
// datagram socket.
func (s *Server) submitDatagramRecv() {
	buf := s.dgramBuf
	tag := reactor.NewTag(reactor.Recv, 0)
	err := s.ring.Submit(tag, func() reactor.Result {
		n, endpoint, err := s.tr.ReadFrom(buf)
		return reactor.Result{N: n, Err: err, Attachment: endpoint}
	})
	if err != nil {
		s.Log.Error("cannot arm datagram recv", "error", err)
	}
}

// onDatagramRecv processes one datagram and re-arms the receive.
func (s *Server) onDatagramRecv(c reactor.Completion) {
	if c.Err != nil {
		if errors.Is(c.Err, transport.ErrClosed) {
			return
		}
		s.Log.Warn("datagram recv failed", "error", c.Err)
		s.submitDatagramRecv()
		return
	}

	endpoint, _ := c.Attachment.(string)
	atomic.AddInt64(&s.Info.BytesReceived, int64(c.N))
	s.processDatagram(s.dgramBuf[:c.N], endpoint)
	s.submitDatagramRecv()
}

// processDatagram decodes the single frame a datagram carries and
// applies it. There is no handshake state on this path: the first
// well-formed handshake frame from a new endpoint both creates the
// session and performs its handshake; anything malformed is discarded.
func (s *Server) processDatagram(data []byte, endpoint string) {
	fr, _, err := packets.Decode(data)
	if err != nil {
		atomic.AddInt64(&s.Info.ProtocolViolations, 1)
		s.Log.Debug("discarding undecodable datagram", "endpoint", endpoint, "error", err)
		return
	}

	atomic.AddInt64(&s.Info.PacketsReceived, 1)

	sess, ok := s.Sessions.GetByEndpoint(endpoint)
	if !ok {
		if fr.Opcode != packets.HandshakePub && fr.Opcode != packets.HandshakeSub {
			s.Log.Debug("discarding datagram from unknown endpoint", "endpoint", endpoint, "opcode", fr.Opcode)
			return
		}

		sess = s.Sessions.Create(nil, endpoint)
		if err := s.applyHandshake(sess, fr); err != nil {
			s.Log.Debug("handshake rejected", "endpoint", endpoint, "error", err)
			atomic.AddInt64(&s.Info.ProtocolViolations, 1)
			s.Sessions.Delete(sess.Handle)
			return
		}
		s.noteSessionOpened()
		return
	}

	if fr.Opcode == packets.HandshakePub || fr.Opcode == packets.HandshakeSub {
		s.Log.Debug("dropping repeated handshake", "endpoint", endpoint)
		return
	}

	s.handleReadyFrame(sess, fr)
	if sess.State == StateClosing {
		// The transport endpoint is shared, so teardown only removes
		// the session from the table.
		s.closeSession(sess)
	}
}

// pumpDatagramSend keeps at most one datagram send in flight globally,
// scanning the session table round-robin for the next queued frame.
func (s *Server) pumpDatagramSend() {
	if s.dgramBusy {
		return
	}

	handles := s.Sessions.Handles()
	for i := 0; i < len(handles); i++ {
		idx := (s.dgramCursor + i) % len(handles)
		sess, ok := s.Sessions.Get(handles[idx])
		if !ok || len(sess.queue) == 0 {
			continue
		}

		s.dgramCursor = (idx + 1) % len(handles)
		s.dgramBusy = true

		frame := sess.queue[0]
		endpoint := sess.Endpoint
		tag := reactor.NewTag(reactor.Send, sess.Handle)
		err := s.ring.Submit(tag, func() reactor.Result {
			n, err := s.tr.WriteTo(frame, endpoint)
			return reactor.Result{N: n, Err: err}
		})
		if err != nil {
			s.dgramBusy = false
			s.Log.Error("cannot arm datagram send", "handle", sess.Handle, "error", err)
		}
		return
	}
}

// onDatagramSend completes the global in-flight send and pumps the
// next queued frame.
func (s *Server) onDatagramSend(c reactor.Completion) {
	s.dgramBusy = false

	sess, ok := s.Sessions.Get(c.Tag.Handle())
	if ok {
		if c.Err != nil {
			s.Log.Debug("datagram send failed", "handle", sess.Handle, "error", c.Err)
			s.closeSession(sess)
		} else {
			atomic.AddInt64(&s.Info.PacketsSent, 1)
			atomic.AddInt64(&s.Info.BytesSent, int64(c.N))
			sess.queue = sess.queue[1:]
		}
	}

	s.pumpDatagramSend()
}
