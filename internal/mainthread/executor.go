// Package mainthread serializes host-state mutations onto the single thread
// the host application reserves for them.
//
// The host drives execution cooperatively: it owns the main thread and
// periodically invokes the Executor's Drain through whatever Scheduler
// adapter fits its runtime. Any goroutine may submit work through the
// Dispatcher, which blocks the caller until the drained job completes or a
// bounded timeout expires. Handlers are expected to be short; long work
// belongs in a polled operation record, not a blocking job.
package mainthread

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/envelope"
)

// Handler executes one named operation with decoded arguments and returns
// the normalized result. The registry's dispatch function satisfies this.
type Handler func(ctx context.Context, operation string, args map[string]any) envelope.Result

// Job is one queued unit of work. The executor is its only writer: it
// stores the result, then closes done, in that order. Waiters read the
// result only after done is closed. A job is never reused or requeued;
// abandoned jobs still complete, their results simply go unread.
type Job struct {
	Operation string
	Arguments map[string]any

	result envelope.Result
	done   chan struct{}
}

func newJob(operation string, args map[string]any) *Job {
	return &Job{
		Operation: operation,
		Arguments: args,
		done:      make(chan struct{}),
	}
}

type executorKey struct{}

// OnExecutor reports whether ctx descends from an executor drain turn.
// Calls made under such a context run inline instead of queueing, which
// keeps nested calls from deadlocking against the drain already running.
func OnExecutor(ctx context.Context) bool {
	on, _ := ctx.Value(executorKey{}).(bool)

	return on
}

func markExecutor(ctx context.Context) context.Context {
	return context.WithValue(ctx, executorKey{}, true)
}

// Executor drains queued jobs on the host's main thread.
type Executor struct {
	log      *slog.Logger
	handler  Handler
	jobs     chan *Job
	interval time.Duration

	regMu      sync.Mutex
	registered bool
}

// NewExecutor creates an executor that routes every job to handler.
func NewExecutor(log *slog.Logger, handler Handler, opts *config.Options) *Executor {
	return &Executor{
		log:      log.With("component", "executor"),
		handler:  handler,
		jobs:     make(chan *Job, opts.EffectiveQueueCap()),
		interval: opts.EffectiveDrainInterval(),
	}
}

// RegisterWith arranges Drain to run periodically via the scheduler.
// Registration is idempotent: only the first call reaches the scheduler.
func (e *Executor) RegisterWith(s config.Scheduler) error {
	e.regMu.Lock()
	defer e.regMu.Unlock()

	if e.registered {
		return nil
	}

	if err := s.Register(e.Drain); err != nil {
		return fmt.Errorf("register drain: %w", err)
	}
	e.registered = true
	e.log.Info("Drain registered with scheduler", "interval", e.interval)

	return nil
}

// Registered reports whether a scheduler is driving Drain.
func (e *Executor) Registered() bool {
	e.regMu.Lock()
	defer e.regMu.Unlock()

	return e.registered
}

// Drain pops every currently queued job without blocking and executes each
// handler synchronously in arrival order. It never aborts on a failing job:
// panics are captured per job as internal errors. The return value is the
// delay before the scheduler should invoke Drain again.
func (e *Executor) Drain() time.Duration {
	for {
		select {
		case job := <-e.jobs:
			job.result = e.run(context.Background(), job.Operation, job.Arguments)
			close(job.done)
		default:
			return e.interval
		}
	}
}

// run executes one operation under the executor context marker.
func (e *Executor) run(ctx context.Context, operation string, args map[string]any) (res envelope.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Handler panicked", "operation", operation, "panic", r)
			res = envelope.FromPanic(r)
		}
	}()

	return e.handler(markExecutor(ctx), operation, args)
}
