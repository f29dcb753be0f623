package apiclient

import (
	"fmt"
	"net/http"
)

// RejectedError reports a non-2xx response. Message is empty when the server
// gave no reason.
type RejectedError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s rejected: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s rejected: %d %s", e.Op, e.Status, e.Message)
}

// ConnectivityError reports a request that never produced a usable response:
// dial and DNS failures, timeouts, cancelled contexts and unreadable bodies.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: connectivity: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }
