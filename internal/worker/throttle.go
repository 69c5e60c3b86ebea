package worker

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

const (
	throttleMax     = 30 * time.Second
	throttleBackoff = 2.0
	throttleRecover = 0.9
)

// Throttle spaces requests per host. Each wait applies the host's
// current delay with ±50% jitter; 429 and 503 responses double the
// delay (capped) and successes decay it back toward the base.
type Throttle struct {
	base time.Duration

	mu    sync.Mutex
	hosts map[string]time.Duration
}

func NewThrottle(base time.Duration) *Throttle {
	return &Throttle{base: base, hosts: map[string]time.Duration{}}
}

func (t *Throttle) delay(host string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d, ok := t.hosts[host]; ok {
		return d
	}
	return t.base
}

// Wait sleeps the jittered per-host delay, or returns early when the
// context is cancelled.
func (t *Throttle) Wait(ctx context.Context, host string) error {
	d := t.delay(host)
	if d <= 0 {
		return ctx.Err()
	}
	jittered := time.Duration(float64(d) * (0.5 + rand.Float64()))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jittered):
		return nil
	}
}

// Observe adapts the host delay from the response status.
func (t *Throttle) Observe(host string, statusCode int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.hosts[host]
	if !ok {
		current = t.base
	}
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		next := time.Duration(float64(current) * throttleBackoff)
		if next > throttleMax {
			next = throttleMax
		}
		if next <= 0 {
			next = time.Second
		}
		t.hosts[host] = next
	default:
		next := time.Duration(float64(current) * throttleRecover)
		if next < t.base {
			next = t.base
		}
		t.hosts[host] = next
	}
}
