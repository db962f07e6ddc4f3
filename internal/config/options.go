// Package config provides configuration types shared across scenebridge.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Defaults applied when options and environment leave a knob unset.
const (
	// DefaultCallTimeout bounds how long a dispatched call waits for the
	// executor before giving up with a timeout error.
	DefaultCallTimeout = 30 * time.Second

	// DefaultDrainInterval is how often the scheduler re-invokes the
	// executor drain when the host does not dictate its own cadence.
	DefaultDrainInterval = 100 * time.Millisecond

	// DefaultQueueCap is the job queue capacity.
	DefaultQueueCap = 256

	// DefaultProxyQueueMax bounds how many requests the bootstrap proxy
	// holds while the backend is still starting.
	DefaultProxyQueueMax = 25

	// DefaultServerName is the serverInfo name reported on initialize.
	DefaultServerName = "scenebridge"

	// DefaultServerVersion is the serverInfo version reported on initialize.
	DefaultServerVersion = "0.4.1"
)

// Environment variables consulted when the corresponding option is unset.
const (
	// EnvCallTimeout overrides DefaultCallTimeout, in whole seconds.
	EnvCallTimeout = "SCENEBRIDGE_CALL_TIMEOUT"

	// EnvDrainInterval overrides DefaultDrainInterval, in milliseconds.
	EnvDrainInterval = "SCENEBRIDGE_DRAIN_INTERVAL_MS"

	// EnvQueueCap overrides DefaultQueueCap.
	EnvQueueCap = "SCENEBRIDGE_QUEUE_CAP"

	// EnvProxyQueueMax overrides DefaultProxyQueueMax.
	EnvProxyQueueMax = "SCENEBRIDGE_PROXY_QUEUE_MAX"
)

// Options configures the bridge, its transports, and the bootstrap proxy.
type Options struct {
	// Logger is the slog logger for diagnostic output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// CallTimeout bounds a dispatched call's wait for the executor.
	// If zero, EnvCallTimeout then DefaultCallTimeout apply.
	CallTimeout time.Duration

	// DrainInterval is the repoll interval the executor reports to its
	// scheduler. If zero, EnvDrainInterval then DefaultDrainInterval apply.
	DrainInterval time.Duration

	// QueueCap is the job queue capacity.
	// If zero, EnvQueueCap then DefaultQueueCap apply.
	QueueCap int

	// ProxyQueueMax bounds the bootstrap proxy's pending-request queue.
	// When the queue is full, the oldest entry is dropped.
	// If zero, EnvProxyQueueMax then DefaultProxyQueueMax apply.
	ProxyQueueMax int

	// Scheduler adopts the executor drain into the host's own periodic
	// callback system. If nil, a headless tick scheduler is used.
	Scheduler Scheduler

	// ServerName is reported in the initialize result's serverInfo.
	ServerName string

	// ServerVersion is reported in the initialize result's serverInfo.
	ServerVersion string

	// HTTPAddr, when non-empty, enables the HTTP transport on that address.
	HTTPAddr string

	// WSAddr, when non-empty, enables the WebSocket transport on that address.
	WSAddr string

	// BackendPath is the explicit path to the backend binary the proxy
	// launches. If empty, the scenebridge binary is searched in PATH and
	// common install locations.
	BackendPath string

	// BackendArgs are the arguments passed to the backend binary.
	BackendArgs []string

	// Env provides additional environment variables for the backend process.
	Env map[string]string

	// Stderr is a callback for diagnostic lines the proxy redirects away
	// from the protocol stream. If nil, lines go to the process stderr.
	Stderr func(string)
}

// EffectiveCallTimeout resolves the call timeout from options, env, or default.
func (o *Options) EffectiveCallTimeout() time.Duration {
	if o != nil && o.CallTimeout > 0 {
		return o.CallTimeout
	}

	if s := os.Getenv(EnvCallTimeout); s != "" {
		if sec, err := strconv.Atoi(s); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
	}

	return DefaultCallTimeout
}

// EffectiveDrainInterval resolves the drain repoll interval from options, env, or default.
func (o *Options) EffectiveDrainInterval() time.Duration {
	if o != nil && o.DrainInterval > 0 {
		return o.DrainInterval
	}

	if s := os.Getenv(EnvDrainInterval); s != "" {
		if ms, err := strconv.Atoi(s); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}

	return DefaultDrainInterval
}

// EffectiveQueueCap resolves the job queue capacity from options, env, or default.
func (o *Options) EffectiveQueueCap() int {
	if o != nil && o.QueueCap > 0 {
		return o.QueueCap
	}

	if s := os.Getenv(EnvQueueCap); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}

	return DefaultQueueCap
}

// EffectiveProxyQueueMax resolves the proxy queue bound from options, env, or default.
func (o *Options) EffectiveProxyQueueMax() int {
	if o != nil && o.ProxyQueueMax > 0 {
		return o.ProxyQueueMax
	}

	if s := os.Getenv(EnvProxyQueueMax); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}

	return DefaultProxyQueueMax
}

// EffectiveServerName resolves the advertised server name.
func (o *Options) EffectiveServerName() string {
	if o != nil && o.ServerName != "" {
		return o.ServerName
	}

	return DefaultServerName
}

// EffectiveServerVersion resolves the advertised server version.
func (o *Options) EffectiveServerVersion() string {
	if o != nil && o.ServerVersion != "" {
		return o.ServerVersion
	}

	return DefaultServerVersion
}
