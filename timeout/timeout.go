// Package timeout bounds the wall-clock time of potentially
// non-terminating computations (the equation solver and the
// expression simplifier).
package timeout

import (
	"errors"
	"time"
)

// ErrTimeout is returned when the deadline expires before the
// computation finishes.
var ErrTimeout = errors.New("timeout exceeded")

// Run executes f and waits for it at most d. A non-positive d runs f
// inline without any bound.
//
// This is a cooperative timeout, not true cancellation: when the
// deadline expires the worker goroutine is abandoned and may keep
// consuming CPU until it finishes on its own or the process exits.
// Results produced after expiry are discarded.
func Run(d time.Duration, f func() error) error {
	if d <= 0 {
		return f()
	}
	done := make(chan error, 1)
	go func() {
		done <- f()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(d):
		return ErrTimeout
	}
}

// RunStop is Run with cooperative cancellation: when the deadline
// expires the stop channel is closed, so a worker structured as a
// loop can observe it between steps and quit instead of running to
// completion in the background. With a non-positive d the worker
// receives a nil channel, which is never ready.
func RunStop(d time.Duration, f func(stop <-chan struct{}) error) error {
	if d <= 0 {
		return f(nil)
	}
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- f(stop)
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(d):
		close(stop)
		return ErrTimeout
	}
}
