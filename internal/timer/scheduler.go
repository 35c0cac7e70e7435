package timer

import (
	"sync"
	"time"
)

// Scheduler arms a repeating callback. The returned cancel func must be
// safe to call more than once and must not wait for an in-flight callback.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler runs each armed callback on its own goroutine driven by a
// time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	stopCh := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stopCh) })
	}
}
