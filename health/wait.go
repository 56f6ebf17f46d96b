package health

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// WaitHealthy probes p with exponential backoff until it reports healthy,
// ctx is done, or maxElapsed passes.
func WaitHealthy(ctx context.Context, p Pinger, maxElapsed time.Duration) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = maxElapsed

	attempts := 0
	op := func() error {
		attempts++
		return p.Health(ctx)
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("api not healthy after %d attempts: %w", attempts, err)
	}
	return nil
}
