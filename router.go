package herald

// Router maps each channel id to the sessions subscribed to it. It
// stores session handles, never session pointers; lookups go through
// the session table, which is the sole owner. Owned exclusively by the
// engine goroutine.
type Router struct {
	subs [256][]uint32
}

// NewRouter returns an empty routing table.
func NewRouter() *Router {
	return new(Router)
}

// Subscribe adds a session to a channel's fan-out list. Adding an
// already-present handle is a no-op.
func (r *Router) Subscribe(ch byte, handle uint32) {
	for _, h := range r.subs[ch] {
		if h == handle {
			return
		}
	}
	r.subs[ch] = append(r.subs[ch], handle)
}

// Unsubscribe removes a session from a channel's fan-out list.
func (r *Router) Unsubscribe(ch byte, handle uint32) {
	list := r.subs[ch]
	for i, h := range list {
		if h == handle {
			r.subs[ch] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Drop removes a session from every channel it subscribed to, using
// the session's own bitmap to avoid scanning all 256 entries.
func (r *Router) Drop(s *Session) {
	for _, ch := range s.Channels.Channels() {
		r.Unsubscribe(ch, s.Handle)
	}
}

// Subscribers returns the fan-out list for a channel. The returned
// slice is the router's own; callers must not retain it across
// mutations.
func (r *Router) Subscribers(ch byte) []uint32 {
	return r.subs[ch]
}

// Count returns the total number of (channel, session) subscriptions.
func (r *Router) Count() int {
	n := 0
	for ch := range r.subs {
		n += len(r.subs[ch])
	}
	return n
}
