package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrHTTP           = errors.New("payload rest: unexpected response status")
	ErrAuthentication = errors.New("payload rest: authentication failed")
	ErrBaseURLInvalid = errors.New("payload rest: base url is invalid")
)

const maxErrorBody = 2048

// HTTPError is returned for every response outside the 2xx range. Body holds
// the raw response body.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ErrHTTP.Error()
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	msg := fmt.Sprintf("payload rest: %s %s: status %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if body != "" {
		msg += ": " + body
	}
	return msg
}

func (e *HTTPError) Unwrap() error {
	return ErrHTTP
}

// AuthenticationError reports missing credentials or a failed login.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e == nil {
		return ErrAuthentication.Error()
	}
	msg := ErrAuthentication.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthenticationError) Unwrap() []error {
	if e == nil || e.Err == nil {
		return []error{ErrAuthentication}
	}
	return []error{ErrAuthentication, e.Err}
}

// StatusCode returns the status carried by an *HTTPError in err's chain, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
