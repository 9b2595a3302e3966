// Package guardian wires the monitoring pipeline together: detection
// loop, attention state machine, emergency countdown, voice session
// lifecycle and the dashboard. It owns all cross-component side
// effects; the packages below it never import each other.
package guardian

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/driveguard/driveguard/internal/log"
	"github.com/driveguard/driveguard/pkg/attention"
	"github.com/driveguard/driveguard/pkg/audioio"
	"github.com/driveguard/driveguard/pkg/escalation"
	"github.com/driveguard/driveguard/pkg/session"
	"github.com/driveguard/driveguard/pkg/web"
)

// ErrPermission marks a required device (camera, microphone, speaker)
// as unavailable. Fatal to starting the relevant subsystem; there is no
// automatic retry.
var ErrPermission = errors.New("guardian: required device unavailable")

// DefaultIdleTimeout is how long an engaged session may sit with no
// conversation activity before it is closed and monitoring resumes.
const DefaultIdleTimeout = 2 * time.Minute

// goodbyeGrace is how long the agent gets to finish its goodbye after
// calling end_conversation.
const goodbyeGrace = 2 * time.Second

// AudioFactory opens fresh capture and playback devices for one
// session. Sessions are single-use, so their devices are too.
type AudioFactory func() (audioio.Source, audioio.Sink, error)

// Config holds the orchestrator settings.
type Config struct {
	// Session configures each voice session. SystemPrompt is overridden
	// with the in-car prompt when empty.
	Session session.Config

	// Contact identifies the emergency contact passed to the notifier.
	Contact string

	// DashboardPort is the web dashboard listen port.
	DashboardPort string

	// IdleTimeout closes a session with no conversation activity.
	// Defaults to DefaultIdleTimeout.
	IdleTimeout time.Duration
}

// App is the running monitor. Create with New, drive with Run.
type App struct {
	cfg    Config
	logger *slog.Logger
	clock  clockwork.Clock

	machine   *attention.Machine
	monitor   *attention.Monitor
	timer     *escalation.Timer
	location  *escalation.LocationStore
	registry  *session.Registry
	audio     AudioFactory
	dashboard *web.Server

	mu   sync.Mutex
	sess *session.Manager
	idle clockwork.Timer

	// runCtx is the lifetime of Run; side-effect callbacks use it to
	// start sessions and countdowns.
	runCtx context.Context
}

// Option configures the App.
type Option func(*App)

// WithClock sets the clock used for the detection loop, countdown and
// idle timeout.
func WithClock(c clockwork.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithLocationStore shares an externally owned location store, letting
// tools like place search read the same position the emergency
// notification reports.
func WithLocationStore(s *escalation.LocationStore) Option {
	return func(a *App) { a.location = s }
}

// New wires the orchestrator. sampler provides eye landmark samples,
// audio opens the session's devices, notifier delivers the emergency
// notification, and extraTools are appended to the built-in session
// control tools.
func New(cfg Config, sampler attention.Sampler, audio AudioFactory, notifier escalation.Notifier, extraTools []session.Handler, opts ...Option) (*App, error) {
	if cfg.Contact == "" {
		return nil, errors.New("guardian: emergency contact not set")
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Session.SystemPrompt == "" {
		cfg.Session.SystemPrompt = systemPrompt
	}

	a := &App{
		cfg:      cfg,
		logger:   log.L().With("component", "guardian"),
		clock:    clockwork.NewRealClock(),
		machine:  attention.NewMachine(),
		location: escalation.NewLocationStore(),
		audio:    audio,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.timer = escalation.NewTimer(notifier, cfg.Contact, a.location,
		escalation.WithTimerClock(a.clock),
		escalation.WithTimerLogger(a.logger),
	)
	a.timer.OnResolved(a.handleCountdownResolved)

	handlers := append(a.controlTools(), extraTools...)
	a.registry = session.NewRegistry(handlers...)

	a.monitor = attention.NewMonitor(sampler, a.machine,
		attention.WithClock(a.clock),
		attention.WithLogger(a.logger),
	)

	a.machine.OnEngage(func() { a.engage(drowsyGreeting) })
	a.machine.OnEscalate(a.escalate)
	a.machine.OnChange(a.publishDriverState)

	a.dashboard = web.NewServer(cfg.DashboardPort)
	a.dashboard.OnDriverOK = a.timer.Cancel

	return a, nil
}

// UpdateLocation records the vehicle's last known position for place
// search and emergency notification.
func (a *App) UpdateLocation(loc escalation.Location) {
	a.location.Update(loc)
}

// Run starts the dashboard and blocks in the detection loop until the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.runCtx = ctx
	a.dashboard.StartAsync()
	a.publishDriverState(a.machine.State())

	err := a.monitor.Run(ctx)

	a.Shutdown()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown closes the active session and stops the dashboard.
func (a *App) Shutdown() {
	a.closeSession()
	if err := a.dashboard.Shutdown(); err != nil {
		a.logger.Warn("dashboard shutdown failed", "error", err)
	}
}

// engage starts a voice session (or reuses the active one) and injects
// the host prompt. Fires on the drowsy edge and, with a different
// prompt, on the unresponsive edge.
func (a *App) engage(greeting string) {
	a.mu.Lock()
	if a.sess != nil {
		sess := a.sess
		a.mu.Unlock()
		if err := sess.InjectText(greeting); err != nil {
			a.logger.Warn("prompt injection failed", "error", err)
		}
		return
	}
	a.mu.Unlock()

	sess, err := a.startSession()
	if err != nil {
		a.logger.Error("session start failed", "error", err)
		// Without a countdown running there is nothing holding the
		// escalated state; fall back to monitoring for another attempt.
		if !a.timer.Status().Active {
			a.machine.ResumeMonitoring()
		}
		return
	}

	if err := sess.InjectText(greeting); err != nil {
		a.logger.Warn("prompt injection failed", "error", err)
	}
}

// escalate starts the emergency countdown and engages the driver with
// the urgent prompt.
func (a *App) escalate() {
	if a.timer.Start(a.runCtx) {
		go a.publishCountdown(a.runCtx)
	}
	a.engage(unresponsiveGreeting)
}

// handleCountdownResolved runs the countdown's terminal bookkeeping:
// record the acknowledgment when the driver responded, then return to
// monitoring either way.
func (a *App) handleCountdownResolved(cancelled bool) {
	if cancelled {
		a.mu.Lock()
		sess := a.sess
		a.mu.Unlock()
		if sess != nil {
			sess.Note(okAcknowledged)
		} else {
			a.dashboard.AddConversation("system", okAcknowledged)
		}
	}
	a.machine.ResumeMonitoring()
}

// startSession opens fresh audio devices and a new session manager.
func (a *App) startSession() (*session.Manager, error) {
	source, sink, err := a.audio()
	if err != nil {
		return nil, err
	}

	sess, err := session.New(a.cfg.Session, source, sink, a.registry,
		session.WithClock(a.clock),
		session.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	sess.OnState(a.handleSessionState)
	sess.OnEntry(a.handleSessionEntry)
	sess.OnClose(a.handleSessionClose)

	if err := sess.Start(a.runCtx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.sess = sess
	a.resetIdleLocked()
	a.mu.Unlock()

	a.dashboard.UpdateStatus(func(s *web.Status) {
		s.SessionActive = true
		s.SessionState = session.StateListening.String()
	})
	return sess, nil
}

// closeSession closes the active session, if any. Resumption of
// monitoring happens in handleSessionClose.
func (a *App) closeSession() {
	a.mu.Lock()
	sess := a.sess
	a.mu.Unlock()
	if sess == nil {
		return
	}
	if err := sess.Close(); err != nil {
		a.logger.Warn("session close failed", "error", err)
	}
}

func (a *App) handleSessionState(s session.ConvState) {
	a.mu.Lock()
	a.resetIdleLocked()
	a.mu.Unlock()

	a.dashboard.UpdateStatus(func(st *web.Status) {
		st.SessionState = s.String()
	})
}

func (a *App) handleSessionEntry(e session.Entry) {
	a.mu.Lock()
	a.resetIdleLocked()
	a.mu.Unlock()

	a.dashboard.AddConversation(string(e.Role), e.Text)
}

// handleSessionClose clears the session and resumes monitoring, unless
// an emergency countdown is still running and must resolve first.
func (a *App) handleSessionClose(err error) {
	a.mu.Lock()
	a.sess = nil
	if a.idle != nil {
		a.idle.Stop()
		a.idle = nil
	}
	a.mu.Unlock()

	if err != nil {
		a.logger.Warn("session closed with error", "error", err)
	}

	a.dashboard.UpdateStatus(func(s *web.Status) {
		s.SessionActive = false
		s.SessionState = session.StateIdle.String()
	})

	if !a.timer.Status().Active {
		a.machine.ResumeMonitoring()
	}
}

// resetIdleLocked restarts the idle timeout. Caller holds a.mu.
func (a *App) resetIdleLocked() {
	if a.idle != nil {
		a.idle.Stop()
	}
	a.idle = a.clock.AfterFunc(a.cfg.IdleTimeout, func() {
		a.logger.Info("session idle timeout reached")
		a.closeSession()
	})
}

// publishDriverState pushes machine transitions to the dashboard.
func (a *App) publishDriverState(s attention.State) {
	a.dashboard.UpdateStatus(func(st *web.Status) {
		st.DriverState = s.String()
	})
}

// publishCountdown streams countdown progress to the dashboard until
// the countdown resolves.
func (a *App) publishCountdown(ctx context.Context) {
	ticker := a.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		status := a.timer.Status()
		a.dashboard.UpdateStatus(func(s *web.Status) {
			s.CountdownActive = status.Active
			s.CountdownSeconds = status.SecondsRemaining
		})
		if !status.Active {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
	}
}
