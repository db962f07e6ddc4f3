package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEffectiveCallTimeout_Default(t *testing.T) {
	var opts Options
	require.Equal(t, DefaultCallTimeout, opts.EffectiveCallTimeout())
}

func TestEffectiveCallTimeout_ExplicitWinsOverEnv(t *testing.T) {
	t.Setenv(EnvCallTimeout, "5")

	opts := Options{CallTimeout: 2 * time.Second}
	require.Equal(t, 2*time.Second, opts.EffectiveCallTimeout())
}

func TestEffectiveCallTimeout_EnvFallback(t *testing.T) {
	t.Setenv(EnvCallTimeout, "7")

	var opts Options
	require.Equal(t, 7*time.Second, opts.EffectiveCallTimeout())
}

func TestEffectiveCallTimeout_InvalidEnvIgnored(t *testing.T) {
	t.Setenv(EnvCallTimeout, "not-a-number")

	var opts Options
	require.Equal(t, DefaultCallTimeout, opts.EffectiveCallTimeout())
}

func TestEffectiveCallTimeout_NonPositiveEnvIgnored(t *testing.T) {
	t.Setenv(EnvCallTimeout, "0")

	var opts Options
	require.Equal(t, DefaultCallTimeout, opts.EffectiveCallTimeout())
}

func TestEffectiveDrainInterval_EnvMilliseconds(t *testing.T) {
	t.Setenv(EnvDrainInterval, "250")

	var opts Options
	require.Equal(t, 250*time.Millisecond, opts.EffectiveDrainInterval())
}

func TestEffectiveQueueCap(t *testing.T) {
	var opts Options
	require.Equal(t, DefaultQueueCap, opts.EffectiveQueueCap())

	t.Setenv(EnvQueueCap, "16")
	require.Equal(t, 16, opts.EffectiveQueueCap())

	opts.QueueCap = 8
	require.Equal(t, 8, opts.EffectiveQueueCap())
}

func TestEffectiveProxyQueueMax(t *testing.T) {
	var opts Options
	require.Equal(t, DefaultProxyQueueMax, opts.EffectiveProxyQueueMax())

	opts.ProxyQueueMax = 3
	require.Equal(t, 3, opts.EffectiveProxyQueueMax())
}

func TestEffectiveServerIdentity(t *testing.T) {
	var opts Options
	require.Equal(t, DefaultServerName, opts.EffectiveServerName())
	require.Equal(t, DefaultServerVersion, opts.EffectiveServerVersion())

	opts.ServerName = "studio-bridge"
	opts.ServerVersion = "9.9.9"
	require.Equal(t, "studio-bridge", opts.EffectiveServerName())
	require.Equal(t, "9.9.9", opts.EffectiveServerVersion())
}

func TestEffective_NilReceiverUsesDefaults(t *testing.T) {
	var opts *Options
	require.Equal(t, DefaultCallTimeout, opts.EffectiveCallTimeout())
	require.Equal(t, DefaultDrainInterval, opts.EffectiveDrainInterval())
	require.Equal(t, DefaultQueueCap, opts.EffectiveQueueCap())
	require.Equal(t, DefaultProxyQueueMax, opts.EffectiveProxyQueueMax())
	require.Equal(t, DefaultServerName, opts.EffectiveServerName())
	require.Equal(t, DefaultServerVersion, opts.EffectiveServerVersion())
}
