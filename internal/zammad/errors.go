package zammad

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the session is invalid or expired. It is fatal
	// for the session: callers must re-authenticate.
	ErrUnauthenticated = errors.New("zammad: not authenticated")
	// ErrForbidden means the session lacks privilege for the resource.
	ErrForbidden = errors.New("zammad: forbidden")
)

// RequestFailedError reports any other non-success response.
type RequestFailedError struct {
	Status     int
	StatusText string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("zammad: api error: %d %s", e.Status, e.StatusText)
}

// IsRequestFailed reports whether err wraps a RequestFailedError.
func IsRequestFailed(err error) bool {
	var rf *RequestFailedError
	return errors.As(err, &rf)
}
