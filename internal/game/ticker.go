package game

import (
	"sync"
	"time"
)

// Ticker drives a session's countdowns from a real-time clock, one Tick per
// interval. Starting a ticker stops any previous run, so at most one tick
// loop feeds a session at a time. Tests bypass it and call Tick directly.
type Ticker struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewTicker returns a ticker with the given interval; zero means one second.
func NewTicker(interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{interval: interval}
}

// Start begins ticking the session. Any previous run is stopped first.
func (t *Ticker) Start(session *Session) {
	t.Stop()

	t.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	t.stop = stop
	t.done = done
	t.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				session.Tick()
			case <-stop:
				return
			}
		}
	}()
}

// Stop cancels the tick loop and waits for it to exit. No tick is delivered
// after Stop returns.
func (t *Ticker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}
