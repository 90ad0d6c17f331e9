package timeout

import (
	"errors"
	"testing"
	"time"
)

func TestRunFinishes(tst *testing.T) {
	ran := false
	err := Run(time.Second, func() error {
		ran = true
		return nil
	})
	if err != nil {
		tst.Error("unexpected error:", err)
	}
	if !ran {
		tst.Error("function was not executed")
	}
}

func TestRunError(tst *testing.T) {
	ref := errors.New("worker failed")
	err := Run(time.Second, func() error {
		return ref
	})
	if err != ref {
		tst.Error("expected worker error, got:", err)
	}
}

func TestRunExpires(tst *testing.T) {
	err := Run(10*time.Millisecond, func() error {
		time.Sleep(10 * time.Second)
		return nil
	})
	if err != ErrTimeout {
		tst.Error("expected ErrTimeout, got:", err)
	}
}

func TestRunUnbounded(tst *testing.T) {
	err := Run(0, func() error {
		return nil
	})
	if err != nil {
		tst.Error("unexpected error:", err)
	}
}

func TestRunStopFinishes(tst *testing.T) {
	err := RunStop(time.Second, func(stop <-chan struct{}) error {
		select {
		case <-stop:
			return errors.New("stopped early")
		default:
		}
		return nil
	})
	if err != nil {
		tst.Error("unexpected error:", err)
	}
}

func TestRunStopExpires(tst *testing.T) {
	stopped := make(chan struct{})
	err := RunStop(10*time.Millisecond, func(stop <-chan struct{}) error {
		<-stop
		close(stopped)
		return nil
	})
	if err != ErrTimeout {
		tst.Error("expected ErrTimeout, got:", err)
	}
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		tst.Fatal("worker did not observe cancellation")
	}
}

func TestRunStopUnbounded(tst *testing.T) {
	ref := errors.New("worker failed")
	err := RunStop(0, func(stop <-chan struct{}) error {
		select {
		case <-stop:
			tst.Error("nil stop channel was ready")
		default:
		}
		return ref
	})
	if err != ref {
		tst.Error("expected worker error, got:", err)
	}
}
