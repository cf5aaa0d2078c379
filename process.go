package herald

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/herald-mq/herald/packets"
	"github.com/herald-mq/herald/transport"
)

// applyHandshake validates a handshake frame and promotes the session
// to Ready, recording its role and channel interest and queueing the
// acknowledgement. The session is left untouched on error.
func (s *Server) applyHandshake(sess *Session, fr packets.Frame) error {
	switch fr.Opcode {
	case packets.HandshakePub:
		p, err := packets.DecodeHandshakePub(fr.Payload)
		if err != nil {
			return err
		}

		sess.Role = RolePublisher
		sess.ClientID = p.ClientID
		sess.Channels.Set(p.Channel)

	case packets.HandshakeSub:
		p, err := packets.DecodeHandshakeSub(fr.Payload)
		if err != nil {
			return err
		}

		sess.Role = RoleSubscriber
		sess.ClientID = p.ClientID
		for _, ch := range p.Channels {
			if !sess.Channels.Has(ch) {
				sess.Channels.Set(ch)
				s.Router.Subscribe(ch, sess.Handle)
				atomic.AddInt64(&s.Info.Subscriptions, 1)
			}
		}

	default:
		return fmt.Errorf("unexpected %s frame during handshake", packets.Names[fr.Opcode])
	}

	sess.State = StateReady
	sess.ID = s.nextSessionID()

	ack := packets.HandshakeAckPacket{Status: 0, SessionID: sess.ID}
	buf := make([]byte, ack.Size())
	if err := ack.Encode(buf); err != nil {
		return err
	}
	s.enqueueFrame(sess, buf)

	s.Log.Info("session established",
		"handle", sess.Handle,
		"session_id", sess.ID,
		"client_id", sess.ClientID,
		"role", sess.Role.String(),
		"channels", sess.Channels.Channels())
	s.hooks.OnSessionEstablished(sess)
	return nil
}

// handleReadyFrame applies one frame to a Ready session. Frames
// inappropriate for the session's role are dropped without a reply.
func (s *Server) handleReadyFrame(sess *Session, fr packets.Frame) {
	switch fr.Opcode {
	case packets.Publish:
		if sess.Role != RolePublisher {
			s.Log.Debug("dropping PUBLISH from non-publisher", "handle", sess.Handle, "role", sess.Role.String())
			return
		}
		p, err := packets.DecodePublish(fr.Payload)
		if err != nil {
			s.Log.Debug("dropping malformed PUBLISH", "handle", sess.Handle, "error", err)
			return
		}
		s.routePublish(sess, p.Channel, p.Message)

	case packets.Subscribe:
		if sess.Role != RoleSubscriber {
			s.Log.Debug("dropping SUBSCRIBE from non-subscriber", "handle", sess.Handle, "role", sess.Role.String())
			return
		}
		p, err := packets.DecodeSubscribe(fr.Payload)
		if err != nil {
			return
		}
		if !sess.Channels.Has(p.Channel) {
			sess.Channels.Set(p.Channel)
			s.Router.Subscribe(p.Channel, sess.Handle)
			atomic.AddInt64(&s.Info.Subscriptions, 1)
			s.Log.Debug("subscribed", "handle", sess.Handle, "channel", p.Channel)
		}

	case packets.Unsubscribe:
		if sess.Role != RoleSubscriber {
			s.Log.Debug("dropping UNSUBSCRIBE from non-subscriber", "handle", sess.Handle, "role", sess.Role.String())
			return
		}
		p, err := packets.DecodeUnsubscribe(fr.Payload)
		if err != nil {
			return
		}
		if sess.Channels.Has(p.Channel) {
			sess.Channels.Clear(p.Channel)
			s.Router.Unsubscribe(p.Channel, sess.Handle)
			atomic.AddInt64(&s.Info.Subscriptions, -1)
			s.Log.Debug("unsubscribed", "handle", sess.Handle, "channel", p.Channel)
		}

	case packets.Ping:
		buf := make([]byte, packets.HeaderSize)
		if packets.EncodeBare(buf, packets.Pong) == nil {
			s.enqueueFrame(sess, buf)
		}

	case packets.Disconnect:
		s.Log.Debug("disconnect requested", "handle", sess.Handle)
		sess.State = StateClosing

	case packets.HandshakePub, packets.HandshakeSub:
		s.Log.Debug("dropping repeated handshake", "handle", sess.Handle)

	default:
		s.Log.Debug("dropping unexpected frame", "handle", sess.Handle, "opcode", fr.Opcode)
	}
}

// routePublish fans a publish out to every subscriber of the channel,
// excluding the sender. One MESSAGE frame is encoded with a single
// timestamp and shared read-only across all send queues; a subscriber
// whose queue is full loses only its own copy.
func (s *Server) routePublish(sender *Session, ch byte, message []byte) {
	atomic.AddInt64(&s.Info.MessagesReceived, 1)

	if len(message) > packets.MaxMessageSize {
		s.Log.Warn("rejecting oversize publish", "handle", sender.Handle, "size", len(message))
		ep := packets.ErrorPacket{Code: packets.ErrCodeMessageTooLarge}
		buf := make([]byte, ep.Size())
		if ep.Encode(buf) == nil {
			s.enqueueFrame(sender, buf)
		}
		return
	}

	mp := packets.MessagePacket{
		Channel:   ch,
		Timestamp: uint64(time.Now().UnixMilli()),
		Message:   message,
	}
	frame := make([]byte, mp.Size())
	if err := mp.Encode(frame); err != nil {
		return
	}

	routed := 0
	for _, handle := range s.Router.Subscribers(ch) {
		if handle == sender.Handle {
			continue
		}
		sub, ok := s.Sessions.Get(handle)
		if !ok || sub.State != StateReady {
			continue
		}

		if s.enqueueFrame(sub, frame) {
			atomic.AddInt64(&s.Info.MessagesSent, 1)
			routed++
		} else {
			atomic.AddInt64(&s.Info.MessagesDropped, 1)
			s.hooks.OnMessageDropped(sub, ch)
			s.Log.Debug("send queue full, message dropped", "handle", sub.Handle, "channel", ch)
		}
	}

	s.hooks.OnPublished(sender, ch, message)
	s.Log.Debug("routed publish", "handle", sender.Handle, "channel", ch, "subscribers", routed)
}

// enqueueFrame appends an encoded frame to the session's bounded queue
// and kicks the transport-appropriate send path. It reports false when
// the queue was full and the frame dropped.
func (s *Server) enqueueFrame(sess *Session, frame []byte) bool {
	if !sess.Enqueue(frame) {
		return false
	}

	if s.tr.Kind() == transport.Stream {
		s.submitSend(sess)
	} else {
		s.pumpDatagramSend()
	}
	return true
}

// noteSessionOpened updates the session gauges for a new session.
func (s *Server) noteSessionOpened() {
	active := atomic.AddInt64(&s.Info.SessionsActive, 1)
	atomic.AddInt64(&s.Info.SessionsTotal, 1)
	if active > atomic.LoadInt64(&s.Info.SessionsMaximum) {
		atomic.StoreInt64(&s.Info.SessionsMaximum, active)
	}
}

// closeSession tears a session down: its routing entries and queued
// frames are discarded, the table entry removed and, for stream
// sessions, the link closed.
func (s *Server) closeSession(sess *Session) {
	if _, ok := s.Sessions.Get(sess.Handle); !ok {
		return
	}

	sess.State = StateClosing
	if sess.Role == RoleSubscriber {
		s.Router.Drop(sess)
		atomic.AddInt64(&s.Info.Subscriptions, -int64(len(sess.Channels.Channels())))
	}

	s.Sessions.Delete(sess.Handle)
	sess.queue = nil
	sess.recv = nil

	if sess.Link != nil {
		sess.Link.Close()
	}

	atomic.AddInt64(&s.Info.SessionsActive, -1)
	s.Log.Debug("session closed", "handle", sess.Handle, "client_id", sess.ClientID)
	s.hooks.OnSessionClosed(sess)
}
