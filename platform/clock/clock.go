// Package clock provides an injectable time source.
// Workflow dwell times and overdue sweeps depend on the current time; routing
// every read through a Clock keeps them deterministic under test.
package clock

import "time"

// Clock is the time source used by the workflow engine.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// Now returns the current system time.
func (Real) Now() time.Time { return time.Now() }

// Fake is a manually advanced clock for tests.
type Fake struct {
	Current time.Time
}

// NewFake creates a fake clock starting at t.
func NewFake(t time.Time) *Fake { return &Fake{Current: t} }

// Now returns the fake's current time.
func (f *Fake) Now() time.Time { return f.Current }

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) { f.Current = f.Current.Add(d) }
