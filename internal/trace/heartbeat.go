package trace

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits periodic liveness events. A trace whose heartbeats keep
// coming after the last span end points at a stuck annotation scan.
type Heartbeat struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartHeartbeat returns nil when tracer is disabled or interval is not
// positive. Stop on a nil *Heartbeat is a no-op.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Heartbeat{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for n := 1; ; n++ {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				tracer.Emit(&Event{
					Time:   now,
					Kind:   KindHeartbeat,
					Scope:  ScopeDriver,
					Name:   "heartbeat",
					Detail: "#" + strconv.Itoa(n),
				})
			}
		}
	}()
	return h
}

// Stop ends the goroutine and waits for it.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
	<-h.done
}
