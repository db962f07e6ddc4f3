package config

import "time"

// Scheduler abstracts the host's periodic-callback facility: the one thread
// the host recognizes as main, driving a callback on its own cadence.
// Implement this to adopt the executor drain into a real host runtime's
// timer system; headless runs use the tick scheduler in internal/mainthread.
//
// Custom schedulers can be injected via Options.Scheduler.
type Scheduler interface {
	// Register arranges fn to run repeatedly on the thread the host treats
	// as main. fn's return value is the delay before its next invocation.
	// Registration is one-shot per scheduler; later calls may be ignored.
	Register(fn func() time.Duration) error
}
