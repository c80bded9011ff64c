package job

import (
	"errors"
	"fmt"

	"github.com/azoksky/fetchd/internal/negotiate"
)

// ErrNotFound is returned for status/stop on a GID the daemon does not know.
var ErrNotFound = errors.New("job: not found")

// ErrDaemonUnavailable tags failures to reach or start the daemon; the job
// submission it interrupted is aborted, not retried.
var ErrDaemonUnavailable = errors.New("job: daemon unavailable")

// ValidationError reports a request rejected before any network activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("job: invalid %s: %s", e.Field, e.Reason)
}

// NegotiationError means every access strategy failed. Attempts carries the
// full trial log so callers can see what each strategy got back.
type NegotiationError struct {
	Attempts []negotiate.Attempt
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("job: no access strategy succeeded (%d tried)", len(e.Attempts))
}
