package mainthread

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/openshed/scenebridge/internal/errors"
)

// Dispatcher presents a synchronous call interface to any goroutine while
// guaranteeing execution happens only through the Executor.
type Dispatcher struct {
	log     *slog.Logger
	exec    *Executor
	timeout time.Duration
}

// NewDispatcher creates a dispatcher bound to exec.
func NewDispatcher(log *slog.Logger, exec *Executor, opts *config.Options) *Dispatcher {
	return &Dispatcher{
		log:     log.With("component", "dispatcher"),
		exec:    exec,
		timeout: opts.EffectiveCallTimeout(),
	}
}

// Timeout reports the configured per-call bound.
func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Call executes one operation and returns its normalized result.
//
// When ctx already carries the executor marker the handler runs inline;
// queueing here would deadlock the drain turn that is running us. Otherwise
// the call is queued as a Job and the caller blocks until the executor
// completes it, the configured timeout passes, or ctx ends. A timed-out
// job is abandoned: the executor still runs it eventually, but the result
// is discarded unread.
func (d *Dispatcher) Call(ctx context.Context, operation string, args map[string]any) envelope.Result {
	if OnExecutor(ctx) {
		return d.exec.run(ctx, operation, args)
	}

	if !d.exec.Registered() {
		d.log.Warn("Executor has no scheduler; call may time out", "operation", operation)
	}

	job := newJob(operation, args)

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	select {
	case d.exec.jobs <- job:

	case <-timer.C:
		d.log.Warn("Job queue full, call timed out", "operation", operation, "timeout", d.timeout)

		return envelope.FromError(fmt.Errorf("enqueue %q: %w: %w after %s",
			operation, errors.ErrQueueFull, errors.ErrCallTimeout, d.timeout))

	case <-ctx.Done():
		d.log.Debug("Call canceled while enqueueing", "operation", operation)

		return envelope.FromError(fmt.Errorf("enqueue %q: %w: %s", operation, errors.ErrCallTimeout, ctx.Err()))
	}

	select {
	case <-job.done:
		return job.result

	case <-timer.C:
		d.log.Warn("Call timed out waiting for main thread", "operation", operation, "timeout", d.timeout)

		return envelope.FromError(fmt.Errorf("call %q: %w after %s", operation, errors.ErrCallTimeout, d.timeout))

	case <-ctx.Done():
		d.log.Debug("Call canceled while waiting", "operation", operation)

		return envelope.FromError(fmt.Errorf("call %q: %w: %s", operation, errors.ErrCallTimeout, ctx.Err()))
	}
}
