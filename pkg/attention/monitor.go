package attention

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultInterval is the nominal detection sample period.
const DefaultInterval = 200 * time.Millisecond

// Monitor runs the fixed-cadence detection loop: pull a sample from the
// detector, feed the debouncer, apply the resulting signal to the state
// machine. A tick that fires while the previous cycle is still running
// is skipped rather than queued, so a slow detector can never build a
// backlog. Per-tick errors are logged and isolated; they never halt the
// loop.
type Monitor struct {
	sampler  Sampler
	debounce *Debouncer
	machine  *Machine
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger

	// stale marks that the loop was suspended (state left MONITORING)
	// and the counters must be cleared before the next evaluated sample.
	stale bool
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithClock sets the clock, letting tests drive ticks virtually.
func WithClock(c clockwork.Clock) MonitorOption {
	return func(m *Monitor) { m.clock = c }
}

// WithInterval overrides the detection sample period.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) MonitorOption {
	return func(m *Monitor) { m.logger = l }
}

// NewMonitor creates a detection loop over the given sampler and machine.
func NewMonitor(sampler Sampler, machine *Machine, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		sampler:  sampler,
		debounce: NewDebouncer(),
		machine:  machine,
		clock:    clockwork.NewRealClock(),
		interval: DefaultInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run blocks until the context is cancelled, ticking at the configured
// interval. Sampling is suspended while the machine is not in
// MONITORING; no detection cycles are wasted once escalated.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			m.Tick(ctx)

			// Drop a tick that fired during the cycle instead of
			// running it back-to-back.
			select {
			case <-ticker.Chan():
			default:
			}
		}
	}
}

// Tick runs one detection cycle. Sampling is suspended while the
// machine is outside MONITORING; on resumption the debounce counters
// are cleared so stale pre-escalation evidence does not carry over.
func (m *Monitor) Tick(ctx context.Context) {
	if !m.machine.Monitoring() {
		m.stale = true
		return
	}
	if m.stale {
		m.debounce.Reset()
		m.stale = false
	}
	m.cycle(ctx)
}

func (m *Monitor) cycle(ctx context.Context) {
	sample, err := m.sampler.Sample(ctx)
	if err != nil {
		m.logger.Warn("detection sample failed", "error", err)
		return
	}

	sig, err := m.debounce.Observe(sample)
	if err != nil {
		m.logger.Warn("sample rejected", "error", err)
		return
	}

	if sig != SignalNone && m.machine.Apply(sig) {
		m.logger.Info("attention state changed",
			"signal", sig.String(),
			"state", m.machine.State().String(),
		)
	}
}
