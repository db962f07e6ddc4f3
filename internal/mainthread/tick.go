package mainthread

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/openshed/scenebridge/internal/config"
)

// TickScheduler drives a registered callback from a dedicated OS-thread-locked
// goroutine. It stands in for the host's own timer system in headless runs,
// where no UI loop exists to adopt the drain callback.
type TickScheduler struct {
	log *slog.Logger

	mu      sync.Mutex
	running bool

	closeOnce sync.Once
	done      chan struct{}
}

// Compile-time check that TickScheduler satisfies the host interface.
var _ config.Scheduler = (*TickScheduler)(nil)

// NewTickScheduler creates a stopped scheduler. The loop starts on the
// first Register call.
func NewTickScheduler(log *slog.Logger) *TickScheduler {
	return &TickScheduler{
		log:  log.With("component", "scheduler"),
		done: make(chan struct{}),
	}
}

// Register starts the tick loop for fn. Only the first registration takes
// effect; later calls are no-ops.
func (s *TickScheduler) Register(fn func() time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Debug("Tick loop already running, ignoring registration")

		return nil
	}
	s.running = true

	go s.loop(fn)

	return nil
}

func (s *TickScheduler) loop(fn func() time.Duration) {
	// The loop owns the thread acting as "main" for the process lifetime.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.log.Debug("Tick loop started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-s.done:
			s.log.Debug("Tick loop stopped")

			return
		case <-timer.C:
			timer.Reset(fn())
		}
	}
}

// Close stops the tick loop. It is safe to call multiple times.
func (s *TickScheduler) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	return nil
}
