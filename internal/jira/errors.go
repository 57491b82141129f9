package jira

import (
	"errors"
	"fmt"
)

// ErrTransport marks network, timeout, and HTTP-level failures from the
// Jira API. The sync core never retries these; callers decide.
var ErrTransport = errors.New("jira transport failure")

// RequestError is an HTTP-level failure (non-2xx response) from Jira.
// It wraps ErrTransport so callers can match the whole class with
// errors.Is.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("jira API %s %s returned %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *RequestError) Unwrap() error { return ErrTransport }

// isNotFound reports whether err is an HTTP 404 from Jira. Lookups
// translate these to a nil result rather than an error.
func isNotFound(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.StatusCode == 404
}
