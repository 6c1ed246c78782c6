package carousel

import (
	"context"
	"sync"
	"time"
)

// TickFunc runs on every autoplay interval.
type TickFunc func(context.Context)

// Autoplay drives a TickFunc on a fixed interval. Start is idempotent, Stop
// waits for the loop to exit, and a nil Autoplay ignores every call.
type Autoplay struct {
	interval     time.Duration
	tick         TickFunc
	controlMutex sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
}

func NewAutoplay(interval time.Duration, tick TickFunc) *Autoplay {
	if interval <= 0 {
		interval = AutoplayInterval
	}
	return &Autoplay{
		interval: interval,
		tick:     tick,
	}
}

func (autoplay *Autoplay) Start(ctx context.Context) {
	if autoplay == nil || autoplay.tick == nil {
		return
	}
	autoplay.controlMutex.Lock()
	if autoplay.cancel != nil {
		autoplay.controlMutex.Unlock()
		return
	}
	loopContext, cancel := context.WithCancel(ctx)
	autoplay.cancel = cancel
	done := make(chan struct{})
	autoplay.done = done
	autoplay.controlMutex.Unlock()

	go autoplay.loop(loopContext, done)
}

// Running reports whether the loop is active.
func (autoplay *Autoplay) Running() bool {
	if autoplay == nil {
		return false
	}
	autoplay.controlMutex.Lock()
	defer autoplay.controlMutex.Unlock()
	return autoplay.cancel != nil
}

func (autoplay *Autoplay) Stop() {
	if autoplay == nil {
		return
	}
	autoplay.controlMutex.Lock()
	cancel := autoplay.cancel
	done := autoplay.done
	autoplay.cancel = nil
	autoplay.done = nil
	autoplay.controlMutex.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Restart replaces the running loop with a fresh one, so the next tick is a
// full interval away. A stopped Autoplay is simply started.
func (autoplay *Autoplay) Restart(ctx context.Context) {
	autoplay.Stop()
	autoplay.Start(ctx)
}

func (autoplay *Autoplay) loop(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(autoplay.interval)
	defer ticker.Stop()
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			autoplay.tick(ctx)
		}
	}
}
