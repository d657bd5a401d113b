package discord

import (
	"errors"
	"fmt"
	"time"
)

// Permanent delivery failures: the channel refuses the bot or is gone.
// Callers must not retry these.
var (
	ErrForbidden = errors.New("discord: forbidden")
	ErrNotFound  = errors.New("discord: channel not found")
)

// RateLimitError carries the server-indicated delay after which the request
// may be repeated.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("discord: rate limited, retry after %s", e.RetryAfter)
}

// IsPermanent reports whether a delivery error must not be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrNotFound)
}
