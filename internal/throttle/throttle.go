// Package throttle limits how often a caller may perform a scoped action
// within a rolling window.
package throttle

import (
	"context"
	"time"
)

// ScopePostUser limits review creation per authenticated user.
const ScopePostUser = "post_user"

// Decision is the outcome of a single limiter check.
type Decision struct {
	Allowed bool
	// RetryAfter is how long the caller should wait; zero when allowed.
	RetryAfter time.Duration
}

// Limiter counts one attempt for key and decides whether it is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Key builds the limiter key for a scope and caller.
func Key(scope, id string) string {
	return "throttle:" + scope + ":" + id
}
