package retry

import (
	"context"
	"time"
)

// Do runs fn up to attempts times with a fixed backoff between tries.
// External side effects (notification sends, file-store calls) are
// fire-and-retry: the caller logs and continues on the final error, and
// never rolls back already-committed workflow state.
func Do(ctx context.Context, attempts int, backoff time.Duration, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
