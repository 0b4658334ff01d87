package sim

import (
	"context"
	"time"
)

// Start runs the clock in a goroutine until ctx is done or Stop is called.
func (u *Updater) Start(ctx context.Context) error {
	u.runMu.Lock()
	defer u.runMu.Unlock()

	if u.activeLocked() {
		return ErrAlreadyRunning
	}
	if u.interval <= 0 {
		return ErrInvalidInterval
	}

	if u.cancel != nil {
		u.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	u.cancel, u.done = cancel, done

	go u.run(ctx, done)
	return nil
}

func (u *Updater) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	u.logger.Info("simulation clock started", "interval", u.interval)
	for {
		select {
		case <-ctx.Done():
			u.logger.Info("simulation clock stopped", "ticks", u.Ticks())
			return
		case <-ticker.C:
			u.Tick()
		}
	}
}

// Stop cancels the clock and waits for the last tick to finish. It is safe
// to call at any time and more than once.
func (u *Updater) Stop() {
	u.runMu.Lock()
	cancel, done := u.cancel, u.done
	u.cancel, u.done = nil, nil
	u.runMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Running reports whether the clock goroutine is active.
func (u *Updater) Running() bool {
	u.runMu.Lock()
	defer u.runMu.Unlock()
	return u.activeLocked()
}

// activeLocked is false once the goroutine has exited, including when the
// parent context ended it.
func (u *Updater) activeLocked() bool {
	if u.done == nil {
		return false
	}
	select {
	case <-u.done:
		return false
	default:
		return true
	}
}

// Ticks returns the number of clock ticks applied.
func (u *Updater) Ticks() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ticks
}
