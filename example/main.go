// Demo server showing the SDK approach: explicit routes, CORS,
// a JSON API, a static file, and an SSE clock stream.
//
// Run with:
//
//	go run ./example
//
// Then try:
//
//	curl http://localhost:8080/?name=Ada
//	curl -X POST -H 'Content-Type: application/json' -d '{"x":1}' http://localhost:8080/api/data
//	curl -N http://localhost:8080/events
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ishangavidusha/httpserver"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	router := httpserver.NewRouter()

	router.Handle("/", []string{"GET"}, func(query httpserver.Query, headers httpserver.Headers, body *string) (*httpserver.Response, error) {
		name := query.Get("name")
		if name == "" {
			name = "Guest"
		}
		return httpserver.NewResponse(fmt.Sprintf("<h1>Welcome, %s!</h1>", name)), nil
	})

	router.Handle("/api/data", []string{"GET", "POST"}, func(query httpserver.Query, headers httpserver.Headers, body *string) (*httpserver.Response, error) {
		if headers.Get("Content-Type") != "application/json" {
			return nil, httpserver.NewBadRequestError("Invalid Content-Type")
		}
		data, err := httpserver.ParseJSON(body)
		if err != nil {
			return nil, httpserver.NewBadRequestError("Invalid JSON body")
		}
		return httpserver.NewResponse(map[string]any{
			"message":      "Data received",
			"data":         data,
			"query_params": query,
		}), nil
	})

	router.Handle("/static/style.css", []string{"GET"}, func(query httpserver.Query, headers httpserver.Headers, body *string) (*httpserver.Response, error) {
		return httpserver.ServeFile("static/style.css", "text/css"), nil
	})

	// publish the current time every second to all connected clients
	router.HandleStream("/events", func(ctx context.Context, hub *httpserver.EventHub, headers httpserver.Headers) error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				hub.Publish("clock", now.Format(time.RFC3339))
			}
		}
	})

	srv, err := httpserver.New(
		httpserver.WithRouter(router),
		httpserver.WithPort(8080),
		httpserver.WithMaxRequestSize(16384),
		httpserver.WithCORS(httpserver.CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000", "https://example.com"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           3600,
		}),
		httpserver.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	fmt.Println("Serving on http://localhost:8080 (Ctrl+C to stop)")

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
