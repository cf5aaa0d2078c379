package herald

import (
	"errors"
	"sync/atomic"

	"github.com/herald-mq/herald/packets"
	"github.com/herald-mq/herald/reactor"
	"github.com/herald-mq/herald/transport"
)

// submitAccept arms the single outstanding accept on the listen
// handle. It is re-armed immediately after each completion.
func (s *Server) submitAccept() {
	tag := reactor.NewTag(reactor.Accept, 0)
	err := s.ring.Submit(tag, func() reactor.Result {
		link, err := s.tr.Accept()
		return reactor.Result{Err: err, Attachment: link}
	})
	if err != nil {
		s.Log.Error("cannot arm accept", "error", err)
	}
}

// onAccept establishes a session for a newly accepted link and re-arms
// the accept.
func (s *Server) onAccept(c reactor.Completion) {
	if c.Err != nil {
		if errors.Is(c.Err, transport.ErrClosed) {
			return
		}
		s.Log.Warn("accept failed", "error", c.Err)
		s.submitAccept()
		return
	}

	link, ok := c.Attachment.(transport.Link)
	if !ok || link == nil {
		s.Log.Error("accept completed without a link")
		s.submitAccept()
		return
	}

	sess := s.Sessions.Create(link, "")
	s.noteSessionOpened()
	s.Log.Debug("session accepted", "handle", sess.Handle, "remote", link.RemoteAddr().String())

	s.submitRecv(sess)
	s.submitAccept()
}

// submitRecv arms the single outstanding receive for a stream session.
func (s *Server) submitRecv(sess *Session) {
	link := sess.Link
	buf := sess.scratch
	tag := reactor.NewTag(reactor.Recv, sess.Handle)
	err := s.ring.Submit(tag, func() reactor.Result {
		n, err := link.Read(buf)
		return reactor.Result{N: n, Err: err}
	})
	if err != nil {
		s.Log.Error("cannot arm recv", "handle", sess.Handle, "error", err)
	}
}

// onRecv folds received bytes into the session's accumulator, decodes
// and processes any complete frames, then either re-arms the receive
// or tears the session down.
func (s *Server) onRecv(c reactor.Completion) {
	sess, ok := s.Sessions.Get(c.Tag.Handle())
	if !ok {
		return
	}

	if c.Err != nil || c.N == 0 {
		if c.Err != nil {
			s.Log.Debug("recv ended", "handle", sess.Handle, "error", c.Err)
		}
		s.closeSession(sess)
		return
	}

	atomic.AddInt64(&s.Info.BytesReceived, int64(c.N))
	sess.recv = append(sess.recv, sess.scratch[:c.N]...)
	s.processStream(sess)

	switch {
	case sess.State != StateClosing:
		s.submitRecv(sess)
	case sess.closeAfterFlush && (sess.sendBusy || len(sess.queue) > 0):
		// Let the final frames drain; the send completion closes us.
	default:
		s.closeSession(sess)
	}
}

// processStream decodes and applies every complete frame in the
// session's accumulator.
func (s *Server) processStream(sess *Session) {
	for sess.State != StateClosing {
		fr, n, err := packets.Decode(sess.recv)
		if errors.Is(err, packets.ErrIncomplete) {
			if sess.State == StateHandshake && len(sess.recv) > maxHandshakeBuffer {
				s.Log.Warn("handshake overran buffer", "handle", sess.Handle)
				s.failHandshake(sess)
			} else if len(sess.recv) > maxRecvBuffer {
				s.Log.Warn("receive accumulator overran without a frame", "handle", sess.Handle)
				atomic.AddInt64(&s.Info.ProtocolViolations, 1)
				sess.State = StateClosing
			}
			return
		}
		if err != nil {
			s.Log.Warn("framing error", "handle", sess.Handle, "error", err)
			if sess.State == StateHandshake {
				s.failHandshake(sess)
			} else {
				atomic.AddInt64(&s.Info.ProtocolViolations, 1)
				sess.State = StateClosing
			}
			return
		}

		atomic.AddInt64(&s.Info.PacketsReceived, 1)

		if sess.State == StateHandshake {
			if err := s.applyHandshake(sess, fr); err != nil {
				s.Log.Warn("handshake rejected", "handle", sess.Handle, "error", err)
				s.failHandshake(sess)
				return
			}
		} else {
			s.handleReadyFrame(sess, fr)
		}

		sess.recv = sess.recv[:copy(sess.recv, sess.recv[n:])]
	}
}

// failHandshake reports an invalid handshake to the peer and marks the
// session for teardown once the error frame has drained.
func (s *Server) failHandshake(sess *Session) {
	atomic.AddInt64(&s.Info.ProtocolViolations, 1)

	ep := packets.ErrorPacket{Code: packets.ErrCodeInvalidHandshake}
	buf := make([]byte, ep.Size())
	if ep.Encode(buf) == nil && s.enqueueFrame(sess, buf) {
		sess.closeAfterFlush = true
	}
	sess.State = StateClosing
}

// submitSend arms a send for the head of the session's queue. At most
// one send is in flight per stream session; the next dequeue fires on
// its completion.
func (s *Server) submitSend(sess *Session) {
	if sess.sendBusy || len(sess.queue) == 0 {
		return
	}

	sess.sendBusy = true
	frame := sess.queue[0]
	link := sess.Link
	tag := reactor.NewTag(reactor.Send, sess.Handle)
	err := s.ring.Submit(tag, func() reactor.Result {
		n, err := link.Write(frame)
		return reactor.Result{N: n, Err: err}
	})
	if err != nil {
		sess.sendBusy = false
		s.Log.Error("cannot arm send", "handle", sess.Handle, "error", err)
	}
}

// onSend pops the sent frame and fires the next one, or finishes a
// deferred teardown once the queue has drained.
func (s *Server) onSend(c reactor.Completion) {
	sess, ok := s.Sessions.Get(c.Tag.Handle())
	if !ok {
		return
	}

	if c.Err != nil {
		s.Log.Debug("send failed", "handle", sess.Handle, "error", c.Err)
		s.closeSession(sess)
		return
	}

	atomic.AddInt64(&s.Info.PacketsSent, 1)
	atomic.AddInt64(&s.Info.BytesSent, int64(c.N))

	sess.queue = sess.queue[1:]
	sess.sendBusy = false

	switch {
	case len(sess.queue) > 0:
		s.submitSend(sess)
	case sess.State == StateClosing:
		s.closeSession(sess)
	}
}
