package comm

import (
	"sync/atomic"
	"time"

	fx "github.com/robotalks/zolink/pkg/framework"
)

// DefaultCharTimeout bounds the gap between two characters of a frame.
const DefaultCharTimeout = 50 * time.Millisecond

// TimeoutGuard is a single-shot deadline measured against a TimeSource.
type TimeoutGuard struct {
	Clock  fx.TimeSource
	Window time.Duration

	deadline time.Time
}

// NewTimeoutGuard creates a guard with the system clock and default window.
func NewTimeoutGuard() *TimeoutGuard {
	return &TimeoutGuard{Clock: fx.SystemTime, Window: DefaultCharTimeout}
}

func (g *TimeoutGuard) now() time.Time {
	if g.Clock == nil {
		return fx.SystemTime.Time()
	}
	return g.Clock.Time()
}

// Arm restarts the deadline at now + Window.
func (g *TimeoutGuard) Arm() {
	window := g.Window
	if window <= 0 {
		window = DefaultCharTimeout
	}
	g.deadline = g.now().Add(window)
}

// Expired reports whether the deadline has passed.
func (g *TimeoutGuard) Expired() bool {
	return !g.deadline.IsZero() && g.now().After(g.deadline)
}

// RxFlag indicates a frame is being received. It's read from the polling
// context and may be written from wherever bytes are consumed.
type RxFlag struct {
	v atomic.Bool
}

// Set updates the flag.
func (f *RxFlag) Set(receiving bool) {
	f.v.Store(receiving)
}

// Get reads the flag.
func (f *RxFlag) Get() bool {
	return f.v.Load()
}
