package cache

import (
	"context"
	"time"
)

// ReplayTTL is how long a webhook idempotency key is remembered. A key that
// reappears within the window is a duplicate delivery; after the window the
// order reconciler's own state check takes over.
const ReplayTTL = 5 * time.Minute

// ReplayGuard deduplicates webhook deliveries. Acquire is an atomic
// check-and-set: it returns true the first time a key is seen within the
// TTL and false for every duplicate, even under concurrent calls for the
// same key. Losing guard state only risks redundant work, never a double
// payment, so implementations do not need durability.
type ReplayGuard interface {
	Acquire(ctx context.Context, key string) (bool, error)
}
