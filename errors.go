package httpserver

import (
	"errors"
	"fmt"
)

// HTTPError is an HTTP failure with a status code and a message that is
// rendered to the client as a JSON body of the form {"error": "<message>"}.
//
// Handlers may return an HTTPError to control the response status
// directly; any other error (or a panic) is reported as a generic 500.
type HTTPError struct {
	// StatusCode is the HTTP status code sent to the client.
	StatusCode int

	// Message is the human-readable error detail, passed through verbatim.
	Message string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates an [HTTPError] with an arbitrary status code.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Message: message}
}

// NewBadRequestError creates a 400 [HTTPError] for malformed requests.
func NewBadRequestError(message string) *HTTPError {
	return NewHTTPError(400, message)
}

// NewNotFoundError creates a 404 [HTTPError].
func NewNotFoundError(message string) *HTTPError {
	return NewHTTPError(404, message)
}

// errPayloadTooLarge is returned when a request exceeds the configured
// maximum size. The message matches the 413 reason phrase.
var errPayloadTooLarge = NewHTTPError(413, "Request Entity Too Large")

// errorResponse converts any error into a well-formed error response.
// HTTPError values keep their status and message; everything else is
// suppressed behind a generic 500 so internal details never leak.
func errorResponse(err error) *Response {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return NewResponse(map[string]string{"error": httpErr.Message}).WithStatus(httpErr.StatusCode)
	}
	return NewResponse(map[string]string{"error": "Internal Server Error"}).WithStatus(500)
}
