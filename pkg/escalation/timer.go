package escalation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultSeconds is the countdown length before the emergency contact
// is notified.
const DefaultSeconds = 15

// Notifier delivers the emergency notification. Implementations are
// fire-and-forget external collaborators (SMS gateway, webhook).
type Notifier interface {
	NotifyEmergencyContact(ctx context.Context, contact string, loc Location) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, contact string, loc Location) error

// NotifyEmergencyContact calls the wrapped function.
func (f NotifierFunc) NotifyEmergencyContact(ctx context.Context, contact string, loc Location) error {
	return f(ctx, contact, loc)
}

// Status is a snapshot of the countdown for observers.
type Status struct {
	Active           bool `json:"active"`
	SecondsRemaining int  `json:"seconds_remaining"`
}

// Timer is the emergency escalation countdown. It starts only on the
// unresponsive edge, decrements once per second, and resolves exactly
// one of two ways: natural expiry (the notifier fires once) or
// cancellation (the driver responded). The two terminal actions are
// mutually exclusive; whichever seizes the active flag first wins.
type Timer struct {
	clock    clockwork.Clock
	notifier Notifier
	contact  string
	location *LocationStore
	seconds  int
	logger   *slog.Logger

	mu        sync.Mutex
	active    bool
	remaining int
	stop      chan struct{}

	// onResolved reports the terminal action: cancelled is true when the
	// driver responded, false when the countdown expired and the
	// notification fired. The caller returns the driver to monitoring.
	onResolved func(cancelled bool)
}

// TimerOption configures a Timer.
type TimerOption func(*Timer)

// WithTimerClock sets the clock, letting tests drive the countdown.
func WithTimerClock(c clockwork.Clock) TimerOption {
	return func(t *Timer) { t.clock = c }
}

// WithSeconds overrides the countdown length.
func WithSeconds(n int) TimerOption {
	return func(t *Timer) { t.seconds = n }
}

// WithTimerLogger sets the logger.
func WithTimerLogger(l *slog.Logger) TimerOption {
	return func(t *Timer) { t.logger = l }
}

// NewTimer creates a countdown bound to a notifier, contact and
// location store.
func NewTimer(notifier Notifier, contact string, location *LocationStore, opts ...TimerOption) *Timer {
	t := &Timer{
		clock:    clockwork.NewRealClock(),
		notifier: notifier,
		contact:  contact,
		location: location,
		seconds:  DefaultSeconds,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnResolved sets the terminal-action observer. Set before Start.
func (t *Timer) OnResolved(fn func(cancelled bool)) {
	t.onResolved = fn
}

// Start begins the countdown. A second start while one is already
// counting down is a no-op; returns whether a new countdown began.
func (t *Timer) Start(ctx context.Context) bool {
	t.mu.Lock()
	if t.active {
		t.mu.Unlock()
		return false
	}
	t.active = true
	t.remaining = t.seconds
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	t.logger.Warn("emergency countdown started", "seconds", t.seconds)

	go t.run(ctx, stop)
	return true
}

func (t *Timer) run(ctx context.Context, stop chan struct{}) {
	ticker := t.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.abandon()
			return
		case <-stop:
			return
		case <-ticker.Chan():
			if t.step(ctx) {
				return
			}
		}
	}
}

// step decrements the countdown and, on reaching zero, performs the
// expiry action. Returns true when the countdown is terminal.
func (t *Timer) step(ctx context.Context) bool {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return true
	}
	t.remaining--
	remaining := t.remaining
	if remaining > 0 {
		t.mu.Unlock()
		t.logger.Info("emergency countdown", "seconds_remaining", remaining)
		return false
	}
	// Expiry seizes the terminal action under the lock so a concurrent
	// Cancel cannot also run.
	t.active = false
	t.mu.Unlock()

	loc, _ := t.location.Last()
	if err := t.notifier.NotifyEmergencyContact(ctx, t.contact, loc); err != nil {
		t.logger.Error("emergency notification failed", "error", err)
	} else {
		t.logger.Warn("emergency contact notified", "contact", t.contact)
	}

	if t.onResolved != nil {
		t.onResolved(false)
	}
	return true
}

// Cancel stops the countdown without notifying, recording that the
// driver responded. Returns false when no countdown was active (already
// expired or never started) — in that case the notification may already
// have fired and the caller must not treat the driver as recovered.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return false
	}
	t.active = false
	close(t.stop)
	t.mu.Unlock()

	t.logger.Info("emergency countdown cancelled")

	if t.onResolved != nil {
		t.onResolved(true)
	}
	return true
}

// abandon clears the countdown on host shutdown without running either
// terminal action.
func (t *Timer) abandon() {
	t.mu.Lock()
	t.active = false
	t.mu.Unlock()
}

// Status returns a snapshot of the countdown.
func (t *Timer) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return Status{}
	}
	return Status{Active: true, SecondsRemaining: t.remaining}
}
