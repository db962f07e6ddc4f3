package scenebridge

import (
	"log/slog"
	"time"
)

// Option configures Options using the functional options pattern.
// This is the primary option type for configuring bridges and the proxy.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for diagnostic output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithServerName sets the name reported in the initialize result's serverInfo.
func WithServerName(name string) Option {
	return func(o *Options) {
		o.ServerName = name
	}
}

// WithServerVersion sets the version reported in the initialize result's serverInfo.
func WithServerVersion(version string) Option {
	return func(o *Options) {
		o.ServerVersion = version
	}
}

// ===== Dispatch =====

// WithCallTimeout bounds how long a dispatched call waits for the main
// thread before giving up with a timeout envelope.
func WithCallTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.CallTimeout = timeout
	}
}

// WithDrainInterval sets the repoll interval the executor reports to its
// scheduler between drains.
func WithDrainInterval(interval time.Duration) Option {
	return func(o *Options) {
		o.DrainInterval = interval
	}
}

// WithQueueCap sets the job queue capacity.
func WithQueueCap(capacity int) Option {
	return func(o *Options) {
		o.QueueCap = capacity
	}
}

// WithScheduler injects the host's periodic-callback facility to drive the
// executor drain. If not set, a headless tick scheduler is used.
func WithScheduler(s Scheduler) Option {
	return func(o *Options) {
		o.Scheduler = s
	}
}

// ===== Transports =====

// WithHTTPAddr enables the HTTP transport on the given address,
// e.g. "127.0.0.1:8602".
func WithHTTPAddr(addr string) Option {
	return func(o *Options) {
		o.HTTPAddr = addr
	}
}

// WithWSAddr enables the WebSocket transport on the given address.
func WithWSAddr(addr string) Option {
	return func(o *Options) {
		o.WSAddr = addr
	}
}

// ===== Bootstrap Proxy =====

// WithProxyQueueMax bounds the bootstrap proxy's pending-request queue.
// When the queue is full, the oldest entry is dropped.
func WithProxyQueueMax(max int) Option {
	return func(o *Options) {
		o.ProxyQueueMax = max
	}
}

// WithBackendPath sets the explicit path to the backend binary the proxy
// launches. If not set, the scenebridge binary is searched in PATH and
// common install locations.
func WithBackendPath(path string) Option {
	return func(o *Options) {
		o.BackendPath = path
	}
}

// WithBackendArgs sets the arguments passed to the backend binary.
func WithBackendArgs(args ...string) Option {
	return func(o *Options) {
		o.BackendArgs = args
	}
}

// WithEnv provides additional environment variables for the backend process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithStderr sets a callback for diagnostic lines the proxy redirects away
// from the protocol stream.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}
