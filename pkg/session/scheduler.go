package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/driveguard/driveguard/pkg/audioio"
)

// Scheduler assigns gapless, non-overlapping start times to decoded
// playback chunks. The cursor is monotonic: each chunk starts at
// max(nextStart, now) and advances the cursor by its own duration, so
// chunks play back-to-back regardless of how fast they arrive relative
// to real time.
//
// Schedule is called only by the session's dispatch goroutine; the
// mutex exists for Reset, which may race with it during close.
type Scheduler struct {
	clock  clockwork.Clock
	sink   audioio.Sink
	rate   int
	logger *slog.Logger

	mu        sync.Mutex
	nextStart time.Time
	timers    []pendingTimer
	released  bool
}

// pendingTimer pairs an armed playback timer with its start time, so
// pruning can tell fired timers from ones still pending.
type pendingTimer struct {
	start time.Time
	timer clockwork.Timer
}

// NewScheduler creates a playback scheduler writing to the sink at the
// given output sample rate.
func NewScheduler(sink audioio.Sink, rate int, clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{clock: clock, sink: sink, rate: rate, logger: logger}
}

// Schedule assigns the chunk its start time, arms its playback and
// returns the assigned start. The chunk is owned by the scheduler until
// its write completes.
func (s *Scheduler) Schedule(pcm []byte) time.Time {
	chunk := audioio.ChunkFromBytes(pcm, s.rate, 1)
	now := s.clock.Now()

	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return time.Time{}
	}
	start := s.nextStart
	if now.After(start) {
		start = now
	}
	s.nextStart = start.Add(chunk.Duration())

	timer := s.clock.AfterFunc(start.Sub(now), func() {
		if err := s.sink.Write(context.Background(), chunk); err != nil {
			s.logger.Warn("playback write failed", "error", err)
		}
	})
	s.timers = append(s.timers, pendingTimer{start: start, timer: timer})
	if len(s.timers) > 64 {
		// Fired timers accumulate during long responses. Prune only the
		// ones whose start has passed; a fast-streaming agent can hold
		// many seconds of audio ahead of real time, and those handles
		// must stay stoppable for barge-in.
		kept := s.timers[:0]
		for _, pt := range s.timers {
			if pt.start.After(now) {
				kept = append(kept, pt)
			}
		}
		s.timers = kept
	}
	s.mu.Unlock()

	return start
}

// NextStart returns the current cursor position.
func (s *Scheduler) NextStart() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}

// Interrupt drops all not-yet-played chunks and rewinds the cursor so
// the next chunk schedules from now. Used on driver barge-in.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	for _, pt := range s.timers {
		pt.timer.Stop()
	}
	s.timers = nil
	s.nextStart = time.Time{}
	s.mu.Unlock()
}

// Release stops all pending playback and releases the output clock.
// Chunks already written to the sink play out naturally; nothing new is
// scheduled until Reset.
func (s *Scheduler) Release() {
	s.mu.Lock()
	for _, pt := range s.timers {
		pt.timer.Stop()
	}
	s.timers = nil
	s.nextStart = time.Time{}
	s.released = true
	s.mu.Unlock()
}

// Reset re-arms a released scheduler for a new session.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	s.nextStart = time.Time{}
	s.released = false
	s.mu.Unlock()
}
