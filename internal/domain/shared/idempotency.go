package shared

import (
	"context"
	"time"
)

// RequestKeyStore tracks client-supplied idempotency keys for mutating requests.
//
// A key moves through two states: claimed (request in flight) and completed
// (value holds the id of the created resource). Releasing a key makes it
// claimable again, which is what a failed request does.
type RequestKeyStore interface {
	// Claim atomically reserves key. When the key already exists claimed is
	// false and value holds the stored value ("" while still in flight).
	Claim(ctx context.Context, key string, ttl time.Duration) (claimed bool, value string, err error)
	// Complete stores the result value for a claimed key
	Complete(ctx context.Context, key, value string, ttl time.Duration) error
	// Release removes the key
	Release(ctx context.Context, key string) error
	Close() error
}
