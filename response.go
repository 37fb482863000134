package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// statusReasons maps the status codes this server emits to their reason
// phrases. Codes outside the table render as "Unknown".
var statusReasons = map[int]string{
	200: "OK",
	201: "Created",
	204: "No Content",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	500: "Internal Server Error",
}

// reasonPhrase returns the reason phrase for a status code.
func reasonPhrase(code int) string {
	if reason, ok := statusReasons[code]; ok {
		return reason
	}
	return "Unknown"
}

// Response is what a handler produces for one request.
//
// Body may be a string (or []byte) of raw text, or any other value, in
// which case it is JSON-encoded on the wire. The Content-Type header is
// filled in automatically at encode time: application/json for
// structured bodies, text/html otherwise. A Content-Type set by the
// handler always wins.
type Response struct {
	// Body is the response payload. See the type comment for encoding rules.
	Body any

	// StatusCode is the HTTP status code. Zero means 200.
	StatusCode int

	// Headers holds response headers with case-sensitive keys.
	Headers map[string]string
}

// NewResponse creates a 200 response around body.
func NewResponse(body any) *Response {
	return &Response{
		Body:       body,
		StatusCode: 200,
		Headers:    map[string]string{},
	}
}

// WithStatus sets the status code and returns the response for chaining.
func (r *Response) WithStatus(code int) *Response {
	r.StatusCode = code
	return r
}

// WithHeader sets a header and returns the response for chaining.
func (r *Response) WithHeader(key, value string) *Response {
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	r.Headers[key] = value
	return r
}

// Encode renders the response as HTTP/1.1 wire bytes, including the
// status line, headers, Content-Length, the Server identification
// header, and the body.
func (r *Response) Encode(serverName string) ([]byte, error) {
	status := r.StatusCode
	if status == 0 {
		status = 200
	}

	var body []byte
	structured := false
	switch b := r.Body.(type) {
	case nil:
	case string:
		body = []byte(b)
	case []byte:
		body = b
	default:
		structured = true
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode response body: %w", err)
		}
		body = encoded
	}

	headers := make(map[string]string, len(r.Headers)+1)
	for k, v := range r.Headers {
		headers[k] = v
	}
	if _, ok := headers["Content-Type"]; !ok {
		if structured {
			headers["Content-Type"] = "application/json"
		} else {
			headers["Content-Type"] = "text/html"
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\n", status, reasonPhrase(status))
	for k, v := range headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(body))
	fmt.Fprintf(&buf, "Server: %s\r\n\r\n", serverName)
	buf.Write(body)
	return buf.Bytes(), nil
}
