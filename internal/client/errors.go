package client

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingID is returned when an update targets a record that was
	// never assigned a server ID. No network call is made.
	ErrMissingID = errors.New("record has no id")
	// ErrNotAuthenticated is returned when an operation requires a signed-in
	// user and the server reports none.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// APIError is a non-2xx response from the server, carrying the message from
// its {error} envelope when one was supplied.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}
