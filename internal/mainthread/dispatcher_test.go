package mainthread

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/envelope"
	"github.com/stretchr/testify/require"
)

// startDrainLoop drives exec.Drain from a background goroutine until the
// test ends, standing in for a host scheduler.
func startDrainLoop(t *testing.T, exec *Executor) {
	t.Helper()

	sched := NewTickScheduler(slog.Default())
	t.Cleanup(func() { _ = sched.Close() })
	require.NoError(t, exec.RegisterWith(sched))
}

func TestCall_RoundTrip(t *testing.T) {
	h := &recordingHandler{}
	opts := &config.Options{DrainInterval: time.Millisecond}
	exec := NewExecutor(slog.Default(), h.handle, opts)
	disp := NewDispatcher(slog.Default(), exec, opts)
	startDrainLoop(t, exec)

	res := disp.Call(context.Background(), "studio.scene.list_objects", map[string]any{})

	require.True(t, res.OK)
	payload, ok := res.Result.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "studio.scene.list_objects", payload["operation"])
}

func TestCall_TimeoutWhenNoDrainer(t *testing.T) {
	h := &recordingHandler{}
	opts := &config.Options{CallTimeout: 30 * time.Millisecond}
	exec := NewExecutor(slog.Default(), h.handle, opts)
	disp := NewDispatcher(slog.Default(), exec, opts)

	start := time.Now()
	res := disp.Call(context.Background(), "studio.object.move", nil)
	elapsed := time.Since(start)

	require.False(t, res.OK)
	require.Equal(t, envelope.CodeTimeout, res.Error.Code)
	require.Less(t, elapsed, 5*time.Second)

	// The abandoned job still runs on the next drain; its result is
	// discarded without disturbing anything.
	exec.Drain()
	require.Equal(t, []string{"studio.object.move"}, h.executed())
}

func TestCall_FastPathRunsInline(t *testing.T) {
	var handler Handler
	var disp *Dispatcher

	handler = func(ctx context.Context, operation string, _ map[string]any) envelope.Result {
		if operation == "outer" {
			// Nested call from inside a drain turn: must not queue.
			return disp.Call(ctx, "inner", nil)
		}

		return envelope.OK(map[string]any{"operation": operation})
	}

	opts := &config.Options{CallTimeout: 200 * time.Millisecond}
	exec := NewExecutor(slog.Default(), handler, opts)
	disp = NewDispatcher(slog.Default(), exec, opts)

	// No scheduler at all: if the nested call queued, it would time out.
	job := newJob("outer", nil)
	exec.jobs <- job
	exec.Drain()

	require.True(t, job.result.OK)
	payload, ok := job.result.Result.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "inner", payload["operation"])
}

func TestCall_ConcurrentCallersSerialize(t *testing.T) {
	var inFlight atomic.Int32
	var overlapped atomic.Bool
	var executed atomic.Int32

	handler := func(_ context.Context, _ string, _ map[string]any) envelope.Result {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		time.Sleep(100 * time.Microsecond)
		inFlight.Add(-1)
		executed.Add(1)

		return envelope.OK(nil)
	}

	opts := &config.Options{DrainInterval: time.Millisecond}
	exec := NewExecutor(slog.Default(), handler, opts)
	disp := NewDispatcher(slog.Default(), exec, opts)
	startDrainLoop(t, exec)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			res := disp.Call(context.Background(), "studio.object.move", nil)
			require.True(t, res.OK)
		}()
	}
	wg.Wait()

	require.False(t, overlapped.Load(), "handlers must never run concurrently")
	require.Equal(t, int32(32), executed.Load())
}

func TestCall_QueueFullTimesOut(t *testing.T) {
	block := make(chan struct{})
	handler := func(_ context.Context, _ string, _ map[string]any) envelope.Result {
		<-block

		return envelope.OK(nil)
	}

	opts := &config.Options{QueueCap: 1, CallTimeout: 40 * time.Millisecond}
	exec := NewExecutor(slog.Default(), handler, opts)
	disp := NewDispatcher(slog.Default(), exec, opts)

	// Fill the only queue slot; nothing drains it.
	exec.jobs <- newJob("occupier", nil)

	res := disp.Call(context.Background(), "studio.object.move", nil)
	require.False(t, res.OK)
	require.Equal(t, envelope.CodeTimeout, res.Error.Code)
	close(block)
}

func TestCall_ContextCanceledWhileWaiting(t *testing.T) {
	h := &recordingHandler{}
	opts := &config.Options{CallTimeout: 5 * time.Second}
	exec := NewExecutor(slog.Default(), h.handle, opts)
	disp := NewDispatcher(slog.Default(), exec, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := disp.Call(ctx, "studio.object.move", nil)

	require.False(t, res.OK)
	require.Equal(t, envelope.CodeTimeout, res.Error.Code)
	require.Less(t, time.Since(start), time.Second)
}

func TestCall_ManyCallsStress(t *testing.T) {
	// Exercises enqueue/drain races. Run with: go test -race
	opts := &config.Options{DrainInterval: time.Millisecond}
	h := &recordingHandler{}
	exec := NewExecutor(slog.Default(), h.handle, opts)
	disp := NewDispatcher(slog.Default(), exec, opts)
	startDrainLoop(t, exec)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for range 25 {
				res := disp.Call(context.Background(), "studio.object.exists", map[string]any{"name": "Cube"})
				require.True(t, res.OK)
			}
		}()
	}
	wg.Wait()

	require.Len(t, h.executed(), 200)
}
