package httpserver

import (
	"strings"
)

// Query holds decoded query-string parameters. A key that appears more
// than once accumulates its values in arrival order.
//
// Query values are not percent-decoded; the raw bytes between delimiters
// are preserved as-is.
type Query map[string][]string

// Get returns the first value for key, or the empty string if absent.
func (q Query) Get(key string) string {
	vs := q[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Has reports whether key appeared in the query string.
func (q Query) Has(key string) bool {
	_, ok := q[key]
	return ok
}

// Headers holds request headers keyed by lower-cased name. A header
// repeated across lines keeps the last value.
type Headers map[string]string

// Get returns the value for name, matching case-insensitively.
// It returns the empty string if the header is absent.
func (h Headers) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Request is one parsed HTTP/1.1 request.
type Request struct {
	// Method is the request method token, e.g. "GET" or "POST".
	Method string

	// Path is the request path with any query string removed.
	Path string

	// Query holds the decoded query-string parameters.
	Query Query

	// Headers holds the request headers with lower-cased keys.
	Headers Headers

	// Body is the raw request body. It is nil when the request carried
	// no header/body separator: callers can distinguish "no body" from
	// an empty body.
	Body *string
}

// ParseRequest parses the raw bytes of one HTTP/1.1 request.
//
// The request line must consist of exactly METHOD, PATH, and VERSION
// separated by single spaces. Header parsing stops at the first empty
// line; everything after it is the body. A request without an empty
// line has no body (Body == nil).
func ParseRequest(raw []byte) (*Request, error) {
	lines := strings.Split(string(raw), "\r\n")

	parts := strings.Split(lines[0], " ")
	if len(parts) != 3 {
		return nil, NewBadRequestError("malformed request line")
	}
	method := parts[0]

	path := parts[1]
	rawQuery := ""
	if idx := strings.Index(path, "?"); idx != -1 {
		rawQuery = path[idx+1:]
		path = path[:idx]
	}

	headers := Headers{}
	bodyStart := 0
	for i, line := range lines[1:] {
		if line == "" {
			bodyStart = i + 2
			break
		}
		if idx := strings.Index(line, ":"); idx != -1 {
			key := strings.ToLower(strings.TrimSpace(line[:idx]))
			headers[key] = strings.TrimSpace(line[idx+1:])
		}
	}

	var body *string
	if bodyStart > 0 {
		joined := strings.Join(lines[bodyStart:], "\r\n")
		body = &joined
	}

	return &Request{
		Method:  method,
		Path:    path,
		Query:   parseQueryString(rawQuery),
		Headers: headers,
		Body:    body,
	}, nil
}

// parseQueryString decodes an &-separated query string. A pair without
// "=" yields an empty value.
func parseQueryString(rawQuery string) Query {
	params := Query{}
	if rawQuery == "" {
		return params
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		key := pair
		value := ""
		if idx := strings.Index(pair, "="); idx != -1 {
			key = pair[:idx]
			value = pair[idx+1:]
		}
		params[key] = append(params[key], value)
	}
	return params
}
