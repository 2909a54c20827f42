package engine

import (
	"errors"

	"lostfound/pkg/client"
)

// Validation errors: no request is issued when these are returned.
var (
	ErrItemNotFound    = errors.New("item not found")
	ErrNoActiveSession = errors.New("no active chat session")
	ErrEmptyMessage    = errors.New("message must contain text or an image")
	ErrTextAndImage    = errors.New("a message carries either text or an image, not both")
)

// ServerRejected reports whether err is a non-2xx response from the
// daemon, returning the server's message when it is. Anything else that
// crossed the wire is a network failure.
func ServerRejected(err error) (string, bool) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message, true
	}
	return "", false
}
