// Package scheduler supplies the domain-specific rate limiter plugged into
// controller-runtime's workqueue. The dedup/in-flight/dirty-flag semantics a
// reconcile work queue needs are already implemented by
// k8s.io/client-go/util/workqueue; this package only supplies how long to
// wait before a failed key is retried.
package scheduler

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"k8s.io/client-go/util/workqueue"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	"github.com/qualified-io/ephemeron-operator/pkg/controller/metrics"
	"github.com/qualified-io/ephemeron-operator/pkg/util"
)

const (
	baseDelay   = 250 * time.Millisecond
	maxDelay    = 5 * time.Minute
	jitterRatio = 0.2
)

// RateLimiter implements workqueue.TypedRateLimiter[T]: a bounded
// exponential backoff (start 250ms, factor 2, cap 5m) with ±20% jitter,
// keyed per item the way workqueue tracks NumRequeues per item itself.
type RateLimiter[T comparable] struct {
	mu       sync.Mutex
	attempts map[T]int
}

// New constructs a RateLimiter for any comparable item type. Controllers
// reconciling a single kind typically want NewForReconcileRequests instead.
func New[T comparable]() *RateLimiter[T] {
	return &RateLimiter[T]{attempts: make(map[T]int)}
}

// NewForReconcileRequests returns a RateLimiter ready to plug into
// controller.Options.RateLimiter for an Ephemeron reconciler.
func NewForReconcileRequests() workqueue.TypedRateLimiter[reconcile.Request] {
	return New[reconcile.Request]()
}

func (r *RateLimiter[T]) When(item T) time.Duration {
	r.mu.Lock()
	n := r.attempts[item]
	r.attempts[item] = n + 1
	r.mu.Unlock()

	metrics.EphemeronQueueRetries.Inc()

	// util.Jitter spreads its ratio across the whole window (±ratio/2), so
	// doubling jitterRatio yields the ±jitterRatio bound.
	return util.Jitter(delayForAttempt(n), 2*jitterRatio)
}

func (r *RateLimiter[T]) Forget(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, item)
}

func (r *RateLimiter[T]) NumRequeues(item T) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[item]
}

// delayForAttempt returns the unjittered backoff delay for the nth failure
// (0-indexed) of a key, computed by stepping cenkalti/backoff's exponential
// calculator with its own randomization disabled since jitter is applied
// separately, matching the ±20% bound the scheduler contract specifies.
func delayForAttempt(n int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.Multiplier = 2
	b.MaxInterval = maxDelay
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	var delay time.Duration
	for i := 0; i <= n; i++ {
		delay = b.NextBackOff()
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}
