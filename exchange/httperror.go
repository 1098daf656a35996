package exchange

import (
	"fmt"
	"net/http"
)

const (
	maxBodyExcerpt = 128
)

//
// HTTPError represents an error due to a non-200 response from an API endpoint that did not carry
// a first-class API error. Rate limiting and server-side failures are transient and worth retrying.
// Anything else almost always means that the request itself is wrong.
//
type HTTPError struct {
	statusCode int
	body       string
}

func NewHTTPError(statusCode int) *HTTPError {
	return &HTTPError{
		statusCode: statusCode,
	}
}

//
// NewHTTPErrorWithBody instantiates an HTTP error that remembers the start of the response body
// for diagnostics.
//
func NewHTTPErrorWithBody(statusCode int, body []byte) *HTTPError {
	if len(body) > maxBodyExcerpt {
		body = body[:maxBodyExcerpt]
	}

	return &HTTPError{
		statusCode: statusCode,
		body:       string(body),
	}
}

func (o *HTTPError) StatusCode() int {
	return o.statusCode
}

// Body returns the start of the response body, if it was captured.
func (o *HTTPError) Body() string {
	return o.body
}

//
// Retryable reports whether the same request might succeed if it is made again later.
//
func (o *HTTPError) Retryable() bool {
	return o.statusCode == http.StatusTooManyRequests || o.statusCode >= http.StatusInternalServerError
}

func (o *HTTPError) Error() string {
	if o.body == "" {
		return fmt.Sprintf("server responded with a %d (%s) status code", o.statusCode, http.StatusText(o.statusCode))
	}

	return fmt.Sprintf("server responded with a %d (%s) status code (body: %s)", o.statusCode, http.StatusText(o.statusCode), o.body)
}
