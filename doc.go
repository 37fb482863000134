// Package httpserver provides a minimal single-process HTTP/1.1 server
// for resource-constrained runtimes, with route dispatch, CORS policy,
// and long-lived Server-Sent-Events streams multiplexed alongside
// ordinary request traffic on one readiness-polling loop.
//
// The server owns its own TCP sockets and request framing rather than
// wrapping net/http: a single loop polls the listening socket together
// with every open SSE client socket, accepting and answering ordinary
// requests while detecting stream client disconnects. Stream handlers
// run on their own goroutine so a slow consumer never stalls the
// listener.
//
// # Quick Start
//
// Register routes, create a server, and run it until interrupted:
//
//	router := httpserver.NewRouter()
//	router.Handle("/hello", []string{"GET"}, func(query httpserver.Query, headers httpserver.Headers, body *string) (*httpserver.Response, error) {
//	    return httpserver.NewResponse("<h1>hello</h1>"), nil
//	})
//
//	srv, _ := httpserver.New(httpserver.WithRouter(router), httpserver.WithPort(8080))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	srv.Start(ctx) // blocks until context is cancelled
//
// # Event Streams
//
// A stream route keeps its connection open and pushes named events
// through the shared [EventHub]:
//
//	router.HandleStream("/events", func(ctx context.Context, hub *httpserver.EventHub, headers httpserver.Headers) error {
//	    ticker := time.NewTicker(time.Second)
//	    defer ticker.Stop()
//	    for {
//	        select {
//	        case <-ctx.Done():
//	            return nil
//	        case now := <-ticker.C:
//	            hub.Publish("clock", now.Format(time.RFC3339))
//	        }
//	    }
//	})
//
// The handler's context is cancelled when its client disconnects or the
// server shuts down.
//
// # Configuration
//
// The server uses the functional options pattern:
//
//	srv, err := httpserver.New(
//	    httpserver.WithRouter(router),
//	    httpserver.WithPort(9090),
//	    httpserver.WithMaxRequestSize(16384),
//	    httpserver.WithCORS(cors),
//	    httpserver.WithLogger(logger),
//	)
//
// # Architecture
//
// The module consists of this package plus:
//
//   - internal/netpoll: raw sockets and the poll(2) readiness wait
//   - internal/metrics: Prometheus collectors and text exposition
//   - config: YAML configuration for the standalone binary
//   - cmd/httpserver: the cobra CLI (serve, validate, version)
//
// The internal packages are not part of the public API and may change
// without notice.
package httpserver
