package toast

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDismissDelay is how long a toast stays queued unless dismissed earlier.
const DefaultDismissDelay = 4500 * time.Millisecond

// Types
const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
)

var (
	NowFunc = time.Now // mockable

	// afterFunc schedules f once after d and returns a func cancelling it.
	afterFunc = func(d time.Duration, f func()) (stop func() bool) { // mockable
		return time.AfterFunc(d, f).Stop
	}

	Types = []Type{TypeSuccess, TypeError, TypeInfo, TypeWarning}
)

type (
	Type string

	// Toast is a transient, dismissible notification.
	Toast struct {
		ID        string    `json:"id"`
		Type      Type      `json:"type"`
		Title     string    `json:"title"`
		Message   string    `json:"message,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Store holds the process-wide toast sequence. A Store starts empty and
	// is meant to live as long as the process; there is nothing to close.
	//
	// Subscribers are notified one at a time, in mutation order. They must not
	// call back into the Store from the notification.
	Store struct {
		delay time.Duration

		mu      sync.Mutex
		toasts  []Toast
		timers  map[string]func() bool
		subs    map[int]func([]Toast)
		nextSub int

		notifyMu sync.Mutex
	}
)

// ParseType matches s case-insensitively against the known toast types.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", false
	}
	return t, true
}

func (t Type) IsValid() bool {
	switch t {
	case TypeSuccess, TypeError, TypeInfo, TypeWarning:
		return true
	}
	return false
}

// NewStore returns an empty Store whose toasts expire after delay.
// A non-positive delay falls back to DefaultDismissDelay.
func NewStore(delay time.Duration) *Store {
	if delay <= 0 {
		delay = DefaultDismissDelay
	}
	return &Store{
		delay:  delay,
		toasts: make([]Toast, 0),
		timers: make(map[string]func() bool),
		subs:   make(map[int]func([]Toast)),
	}
}

// Delay returns the auto-dismiss delay.
func (s *Store) Delay() time.Duration { return s.delay }

// Enqueue appends a toast and schedules its auto-dismissal. Unknown types are
// stored as TypeInfo.
func (s *Store) Enqueue(typ Type, title string, message ...string) string {
	if !typ.IsValid() {
		typ = TypeInfo
	}
	t := Toast{
		ID:        uuid.New().String(),
		Type:      typ,
		Title:     strings.TrimSpace(title),
		CreatedAt: NowFunc(),
	}
	if len(message) > 0 {
		t.Message = strings.TrimSpace(message[0])
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.toasts = append(s.toasts, t)
	id := t.ID
	s.timers[id] = afterFunc(s.delay, func() { s.Dismiss(id) })
	snap, subs := s.snapshot()
	s.mu.Unlock()

	notify(subs, snap)
	return id
}

// Dismiss removes the toast with the given id. Dismissing an id that is not
// queued (already dismissed, expired or never issued) does nothing.
func (s *Store) Dismiss(id string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	// rebuild rather than shift in place so handed-out snapshots stay intact
	toasts := make([]Toast, 0, len(s.toasts)-1)
	toasts = append(toasts, s.toasts[:idx]...)
	s.toasts = append(toasts, s.toasts[idx+1:]...)
	if stop, ok := s.timers[id]; ok {
		stop()
		delete(s.timers, id)
	}
	snap, subs := s.snapshot()
	s.mu.Unlock()

	notify(subs, snap)
}

// Toasts returns the queued toasts, oldest first.
func (s *Store) Toasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyToasts()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.toasts)
}

// Subscribe calls fn with the current toasts now and after every change.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func([]Toast)) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	key := s.nextSub
	s.nextSub++
	s.subs[key] = fn
	snap := s.copyToasts()
	s.mu.Unlock()

	fn(snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, key)
			s.mu.Unlock()
		})
	}
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.toasts {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// copyToasts expects s.mu to be held.
func (s *Store) copyToasts() []Toast {
	toasts := make([]Toast, len(s.toasts))
	copy(toasts, s.toasts)
	return toasts
}

// snapshot expects s.mu to be held.
func (s *Store) snapshot() ([]Toast, []func([]Toast)) {
	subs := make([]func([]Toast), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	return s.copyToasts(), subs
}

func notify(subs []func([]Toast), snap []Toast) {
	for _, fn := range subs {
		fn(snap)
	}
}
