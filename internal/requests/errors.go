package requests

import (
	"context"
	"errors"
	"fmt"
)

// ErrAborted marks a request that was cancelled before it completed. Callers
// drop these results instead of surfacing an error.
var ErrAborted = errors.New("request aborted")

// IsAborted reports whether err came from a cancelled request.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}

func aborted(cause error) error {
	if cause == nil {
		cause = context.Canceled
	}
	return fmt.Errorf("%w: %w", ErrAborted, cause)
}
