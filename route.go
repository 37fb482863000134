package httpserver

import "context"

// Handler answers one ordinary request. It receives the decoded query
// parameters, the lower-cased request headers, and the raw body (nil
// when the request carried none). Returning an [*HTTPError] controls
// the response status; any other error becomes a generic 500.
type Handler func(query Query, headers Headers, body *string) (*Response, error)

// StreamHandler drives one Server-Sent-Events connection. It runs on
// its own goroutine for the lifetime of the stream and pushes events
// through the hub. The context is cancelled when the client disconnects
// or the server shuts down; handlers should return promptly once it is
// done. A returned error is logged and tears the stream down.
type StreamHandler func(ctx context.Context, hub *EventHub, headers Headers) error

// routeEntry is the registration for one path: either a method map for
// ordinary handlers or a stream handler, never both.
type routeEntry struct {
	handlers map[string]Handler
	stream   StreamHandler
}

func (e *routeEntry) isStream() bool {
	return e.stream != nil
}

// Router maps request paths to handlers.
//
// Routes are registered up front and the table is read-only once the
// server starts; Router is not safe for concurrent registration.
type Router struct {
	routes map[string]*routeEntry
}

// NewRouter creates an empty routing table.
func NewRouter() *Router {
	return &Router{routes: map[string]*routeEntry{}}
}

// Handle registers handler for path under each of the given methods.
// An empty methods slice registers GET only. Registering over a stream
// route replaces it entirely: a path is either an ordinary route or a
// stream route, never both.
func (r *Router) Handle(path string, methods []string, handler Handler) {
	if len(methods) == 0 {
		methods = []string{"GET"}
	}
	entry, ok := r.routes[path]
	if !ok || entry.isStream() {
		entry = &routeEntry{handlers: map[string]Handler{}}
		r.routes[path] = entry
	}
	for _, m := range methods {
		entry.handlers[m] = handler
	}
}

// HandleStream registers a Server-Sent-Events handler for path,
// replacing any previous registration for that path.
func (r *Router) HandleStream(path string, handler StreamHandler) {
	r.routes[path] = &routeEntry{stream: handler}
}

// Len returns the number of registered paths.
func (r *Router) Len() int {
	return len(r.routes)
}

// lookup returns the registration for path, if any.
func (r *Router) lookup(path string) (*routeEntry, bool) {
	entry, ok := r.routes[path]
	return entry, ok
}
