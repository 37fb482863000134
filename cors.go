package httpserver

import (
	"strconv"
	"strings"
)

// CORSConfig is the cross-origin policy applied to responses and
// preflight requests.
//
// CORSConfig is immutable once the server starts: preflight requests
// that ask for extra headers are answered per-response and never grow
// the shared allow-headers list.
type CORSConfig struct {
	// AllowOrigins lists the origins allowed to make cross-origin
	// requests. The single entry "*" allows every origin; the response
	// still echoes the caller's origin rather than the literal "*".
	AllowOrigins []string

	// AllowMethods lists the methods accepted in preflight requests.
	AllowMethods []string

	// AllowHeaders lists the headers advertised in preflight responses.
	AllowHeaders []string

	// AllowCredentials emits Access-Control-Allow-Credentials: true.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	// Zero omits the Access-Control-Max-Age header.
	MaxAge int
}

// DefaultCORSConfig returns the policy used when none is configured:
// all origins, GET/POST/OPTIONS, and the Content-Type header.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}
}

// allowsOrigin reports whether origin may make cross-origin requests.
// Matching is literal; there is no wildcard subdomain support.
func (c CORSConfig) allowsOrigin(origin string) bool {
	if len(c.AllowOrigins) == 1 && c.AllowOrigins[0] == "*" {
		return true
	}
	for _, allowed := range c.AllowOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// apply attaches CORS headers to a response. The origin-dependent
// headers are only set for a non-empty, allowed origin. A 204 status
// marks a preflight response and additionally emits the allow-methods,
// allow-headers, and max-age headers; an Access-Control-Allow-Headers
// value already set on the response (by handlePreflight) wins.
func (c CORSConfig) apply(resp *Response, origin string) {
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	if origin != "" && c.allowsOrigin(origin) {
		resp.Headers["Access-Control-Allow-Origin"] = origin
	}
	if c.AllowCredentials {
		resp.Headers["Access-Control-Allow-Credentials"] = "true"
	}
	if resp.StatusCode == 204 {
		resp.Headers["Access-Control-Allow-Methods"] = strings.Join(c.AllowMethods, ", ")
		if _, ok := resp.Headers["Access-Control-Allow-Headers"]; !ok {
			resp.Headers["Access-Control-Allow-Headers"] = strings.Join(c.AllowHeaders, ", ")
		}
		if c.MaxAge > 0 {
			resp.Headers["Access-Control-Max-Age"] = strconv.Itoa(c.MaxAge)
		}
	}
}

// handlePreflight answers an OPTIONS preflight request.
//
// The requested method must be present in AllowMethods or the preflight
// is rejected with a 400. Requested headers are echoed back appended to
// the configured allow-headers, for this response only.
func (c CORSConfig) handlePreflight(headers Headers) (*Response, error) {
	requestedMethod := headers.Get("Access-Control-Request-Method")
	if requestedMethod == "" {
		return nil, NewBadRequestError("Invalid preflight request")
	}
	allowed := false
	for _, m := range c.AllowMethods {
		if m == requestedMethod {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, NewBadRequestError("Invalid preflight request")
	}

	resp := NewResponse("").WithStatus(204)
	if requestedHeaders := headers.Get("Access-Control-Request-Headers"); requestedHeaders != "" {
		merged := append([]string{}, c.AllowHeaders...)
		for _, h := range strings.Split(requestedHeaders, ",") {
			if h = strings.TrimSpace(h); h != "" {
				merged = append(merged, h)
			}
		}
		resp.Headers["Access-Control-Allow-Headers"] = strings.Join(merged, ", ")
	}
	return resp, nil
}
