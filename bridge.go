package scenebridge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/openshed/scenebridge/internal/config"
	"github.com/openshed/scenebridge/internal/errors"
	"github.com/openshed/scenebridge/internal/httpapi"
	"github.com/openshed/scenebridge/internal/mainthread"
	"github.com/openshed/scenebridge/internal/ops"
	"github.com/openshed/scenebridge/internal/scene"
	"github.com/openshed/scenebridge/internal/server"
	"github.com/openshed/scenebridge/internal/tools"
	"github.com/openshed/scenebridge/internal/wsrpc"
)

// closeTimeout bounds graceful transport shutdown during Close.
const closeTimeout = 5 * time.Second

// Bridge owns the scene store, the main-thread executor, the tool registry,
// and the transports. All tool calls, whatever transport carried them,
// funnel through one dispatcher so scene mutations stay serialized.
//
// Lifecycle: bridges are single-use. After Close(), create a new bridge
// with New().
type Bridge struct {
	log        *slog.Logger
	opts       *config.Options
	store      *scene.Store
	ops        *ops.Manager
	registry   *tools.Registry
	executor   *mainthread.Executor
	dispatcher *mainthread.Dispatcher
	router     *server.Server

	// tick is the owned headless scheduler; nil when the host injected its
	// own via WithScheduler.
	tick *mainthread.TickScheduler

	httpSrv  *httpapi.Server
	wsSrv    *wsrpc.Server
	httpAddr net.Addr
	wsAddr   net.Addr

	mu        sync.Mutex
	started   bool
	closed    bool
	closeOnce sync.Once
}

// New creates a new bridge.
//
// The bridge is inert after creation. Call Start() with options to build
// the scene store, register the tool surface, and begin draining jobs.
func New() *Bridge {
	return &Bridge{}
}

// Start builds the bridge's components and starts the configured transports.
//
// The drain callback is registered with the injected Scheduler, or with an
// owned tick scheduler when none is given. Optional HTTP and WebSocket
// listeners are bound here; the stdio transport only runs when the caller
// invokes ServeStdio.
func (b *Bridge) Start(ctx context.Context, opts ...Option) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.ErrBridgeClosed
	}
	if b.started {
		return errors.ErrBridgeAlreadyStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}
	b.log = log.With("component", "bridge")
	b.opts = options

	b.store = scene.New()
	b.ops = ops.NewManager()
	b.registry = tools.NewRegistry(log)
	b.executor = mainthread.NewExecutor(log, b.registry.Dispatch, options)
	b.dispatcher = mainthread.NewDispatcher(log, b.executor, options)

	tools.Register(b.registry, tools.Deps{
		Log:     log,
		Scene:   b.store,
		Ops:     b.ops,
		Call:    b.dispatcher.Call,
		Version: options.EffectiveServerVersion(),
	})

	scheduler := options.Scheduler
	if scheduler == nil {
		b.tick = mainthread.NewTickScheduler(log)
		scheduler = b.tick
		b.log.Debug("No host scheduler injected, using headless ticks")
	}
	if err := b.executor.RegisterWith(scheduler); err != nil {
		_ = b.teardown()

		return fmt.Errorf("start bridge: %w", err)
	}

	b.router = server.New(log, options, b.registry, b.dispatcher.Call)

	if options.HTTPAddr != "" {
		b.httpSrv = httpapi.New(log, options, b.dispatcher.Call, b.store, b.ops)
		addr, err := b.httpSrv.Start()
		if err != nil {
			_ = b.teardown()

			return fmt.Errorf("start bridge: %w", err)
		}
		b.httpAddr = addr
	}

	if options.WSAddr != "" {
		b.wsSrv = wsrpc.New(log, options, b.router)
		addr, err := b.wsSrv.Start()
		if err != nil {
			_ = b.teardown()

			return fmt.Errorf("start bridge: %w", err)
		}
		b.wsAddr = addr
	}

	b.started = true
	b.log.Info("Bridge started",
		"tools", len(b.registry.Names()),
		"call_timeout", options.EffectiveCallTimeout())

	return nil
}

// Call invokes one tool through the dispatcher and returns its normalized
// result. The error return covers lifecycle problems only; tool failures,
// including timeouts, ride inside the Result.
func (b *Bridge) Call(ctx context.Context, name string, args map[string]any) (Result, error) {
	b.mu.Lock()
	started := b.started
	closed := b.closed
	dispatcher := b.dispatcher
	b.mu.Unlock()

	if closed {
		return Result{}, errors.ErrBridgeClosed
	}
	if !started {
		return Result{}, errors.ErrBridgeNotStarted
	}

	return dispatcher.Call(ctx, name, args), nil
}

// ServeStdio runs the blocking line-delimited protocol loop over the given
// streams until exit/shutdown, EOF, or context cancellation. The readiness
// token is written to diag before the first read.
//
// Close does not interrupt a read blocked on in; end the stream or cancel
// ctx to stop serving.
func (b *Bridge) ServeStdio(ctx context.Context, in io.Reader, out, diag io.Writer) error {
	b.mu.Lock()
	started := b.started
	closed := b.closed
	router := b.router
	b.mu.Unlock()

	if closed {
		return errors.ErrBridgeClosed
	}
	if !started {
		return errors.ErrBridgeNotStarted
	}

	return router.Serve(ctx, in, out, diag)
}

// Tools returns the advertised tool names, sorted. Nil before Start.
func (b *Bridge) Tools() []string {
	b.mu.Lock()
	registry := b.registry
	b.mu.Unlock()

	if registry == nil {
		return nil
	}

	return registry.Names()
}

// HTTPAddr returns the bound HTTP transport address, or nil when the HTTP
// transport is disabled or the bridge has not started.
func (b *Bridge) HTTPAddr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.httpAddr
}

// WSAddr returns the bound WebSocket transport address, or nil when the
// WebSocket transport is disabled or the bridge has not started.
func (b *Bridge) WSAddr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.wsAddr
}

// Close stops the transports and the owned scheduler.
//
// After Close(), the bridge cannot be reused. Safe to call multiple times.
// In-flight dispatched calls run to completion or their timeout; Close does
// not preempt them.
func (b *Bridge) Close() error {
	var closeErr error

	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		wasStarted := b.started
		b.started = false
		b.mu.Unlock()

		if !wasStarted {
			return
		}

		b.log.Info("Closing bridge")
		closeErr = b.teardown()
		b.log.Info("Bridge closed")
	})

	return closeErr
}

// teardown stops transports then the owned scheduler, keeping the first
// error. Also used to unwind a partially started bridge.
func (b *Bridge) teardown() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var first error
	if b.wsSrv != nil {
		if err := b.wsSrv.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	if b.httpSrv != nil {
		if err := b.httpSrv.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	if b.tick != nil {
		if err := b.tick.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
