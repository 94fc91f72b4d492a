// Package asyncx provides small concurrency helpers with first-class
// context support: fire-and-forget goroutines and deadline-bounded calls
// to external dependencies.
package asyncx

import (
	"context"
	"time"
)

// Do fires fn in a goroutine and forgets it (fire-and-forget).
func Do(fn func()) {
	go fn()
}

// WithTimeout runs fn with a deadline of d. The returned error is fn's
// own error, or the context error if the deadline expired first.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
