package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionExpired matches any HTTPError carrying status 401.
var ErrSessionExpired = errors.New("upstream: session expired")

// NetworkError indicates the request produced no response at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("upstream: no response: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError indicates the server answered with a 4xx/5xx status. Message
// carries the server-supplied message when the body had one.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream: status %d", e.Status)
}

// Is lets errors.Is(err, ErrSessionExpired) match authentication failures.
func (e *HTTPError) Is(target error) bool {
	return target == ErrSessionExpired && e.Status == http.StatusUnauthorized
}

// NotFoundError indicates the backend reported success:false on a detail
// fetch or write; Message is the server explanation.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return "upstream: record not found"
	}
	return "upstream: " + e.Message
}
