package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/myrkr/go-crosec/protocol"
)

// retry runs fn up to attempts times, returning nil on the first success.
// The loop itself holds only the attempt counter and the last error; each
// attempt is a fresh call. There is no delay between attempts beyond the
// next attempt's own transfer timeouts: a stuck device either answers fast
// or burns through the bound and fails the operation.
//
// Permanent errors are returned immediately: they indicate a logic or data
// integrity problem, not a transient device fault.
func (u *Updater) retry(ctx context.Context, attempts int, op string, fn func(context.Context) error) error {
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}
		last = err
		u.logDebug("attempt failed",
			"op", op,
			"attempt", attempt,
			"error", err.Error(),
		)
	}
	return fmt.Errorf("%s: retries exhausted after %d attempts: %w", op, attempts, last)
}

func isPermanent(err error) bool {
	var outOfBounds *OutOfBoundsError
	var mismatch *ImageMismatchError
	var unsupported *protocol.UnsupportedVersionError
	return errors.As(err, &outOfBounds) ||
		errors.As(err, &mismatch) ||
		errors.As(err, &unsupported)
}
