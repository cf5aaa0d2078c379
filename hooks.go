package herald

import "log/slog"

// Hook receives notifications about broker lifecycle and routing
// events. Hooks run synchronously on the engine goroutine and must
// complete in bounded time.
type Hook interface {
	// ID returns the name of the hook.
	ID() string

	// OnStarted is called when the broker begins serving.
	OnStarted()

	// OnStopped is called after the event loop has exited.
	OnStopped()

	// OnSessionEstablished is called when a handshake completes.
	OnSessionEstablished(s *Session)

	// OnSessionClosed is called when a session is torn down.
	OnSessionClosed(s *Session)

	// OnPublished is called when a publish has been routed.
	OnPublished(s *Session, ch byte, message []byte)

	// OnMessageDropped is called when a subscriber's full send queue
	// forced a message copy to be discarded.
	OnMessageDropped(s *Session, ch byte)
}

// HookBase provides no-op implementations of every hook method, so
// hooks only implement what they need.
type HookBase struct{}

// ID returns the default hook name.
func (h *HookBase) ID() string { return "base" }

func (h *HookBase) OnStarted()                                      {}
func (h *HookBase) OnStopped()                                      {}
func (h *HookBase) OnSessionEstablished(s *Session)                 {}
func (h *HookBase) OnSessionClosed(s *Session)                      {}
func (h *HookBase) OnPublished(s *Session, ch byte, message []byte) {}
func (h *HookBase) OnMessageDropped(s *Session, ch byte)            {}

// Hooks fans events out to the attached hooks in attachment order.
type Hooks struct {
	Log      *slog.Logger
	internal []Hook
}

// Add attaches a hook.
func (h *Hooks) Add(hook Hook) {
	h.internal = append(h.internal, hook)
}

// Len returns the number of attached hooks.
func (h *Hooks) Len() int {
	return len(h.internal)
}

func (h *Hooks) OnStarted() {
	for _, hook := range h.internal {
		hook.OnStarted()
	}
}

func (h *Hooks) OnStopped() {
	for _, hook := range h.internal {
		hook.OnStopped()
	}
}

func (h *Hooks) OnSessionEstablished(s *Session) {
	for _, hook := range h.internal {
		hook.OnSessionEstablished(s)
	}
}

func (h *Hooks) OnSessionClosed(s *Session) {
	for _, hook := range h.internal {
		hook.OnSessionClosed(s)
	}
}

func (h *Hooks) OnPublished(s *Session, ch byte, message []byte) {
	for _, hook := range h.internal {
		hook.OnPublished(s, ch, message)
	}
}

func (h *Hooks) OnMessageDropped(s *Session, ch byte) {
	for _, hook := range h.internal {
		hook.OnMessageDropped(s, ch)
	}
}
