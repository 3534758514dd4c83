package service

import (
	"sync"
	"time"
)

// idleSweeper calls sweep on every tick until Stop.
type idleSweeper struct {
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func startIdleSweeper(interval time.Duration, sweep func(now time.Time)) *idleSweeper {
	s := &idleSweeper{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				sweep(now)
			case <-s.stop:
				return
			}
		}
	}()
	return s
}

// Stop ends the sweep and waits for it. Safe on a nil sweeper.
func (s *idleSweeper) Stop() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// sweepInterval checks for idle sessions twice per ttl.
func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/2, time.Millisecond)
}

// DefaultSessionIdleTTL is how long an untouched session stays in memory.
const DefaultSessionIdleTTL = 30 * time.Minute
