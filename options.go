package httpserver

import (
	"errors"
	"log/slog"
	"time"
)

// serverConfig holds mutable state during Server construction.
type serverConfig struct {
	host           string
	port           int
	serverName     string
	maxRequestSize int
	readTimeout    time.Duration
	pollInterval   time.Duration
	cors           CORSConfig
	router         *Router
	logger         *slog.Logger
	metrics        bool
}

// Option is a function that configures a [Server] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*serverConfig) error

// WithRouter sets the routing table. Required: [New] fails without a
// router holding at least one route.
//
// Example:
//
//	router := httpserver.NewRouter()
//	router.Handle("/", []string{"GET"}, home)
//	srv, err := httpserver.New(httpserver.WithRouter(router))
func WithRouter(router *Router) Option {
	return func(cfg *serverConfig) error {
		if router == nil {
			return errors.New("router cannot be nil")
		}
		cfg.router = router
		return nil
	}
}

// WithHost sets the listen address. Defaults to all interfaces.
func WithHost(host string) Option {
	return func(cfg *serverConfig) error {
		cfg.host = host
		return nil
	}
}

// WithPort sets the TCP port to listen on. Defaults to 8080.
//
// Port 0 asks the kernel for an ephemeral port, reported by
// [Server.Port] once the server is listening.
func WithPort(port int) Option {
	return func(cfg *serverConfig) error {
		if port < 0 || port > 65535 {
			return errors.New("port must be between 0 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithMaxRequestSize caps the total size in bytes of one request
// (request line, headers, and body). Larger requests are rejected with
// a 413 response. Defaults to 8192.
func WithMaxRequestSize(n int) Option {
	return func(cfg *serverConfig) error {
		if n <= 0 {
			return errors.New("max request size must be positive")
		}
		cfg.maxRequestSize = n
		return nil
	}
}

// WithServerName sets the value of the Server response header.
// Defaults to "go-httpserver".
func WithServerName(name string) Option {
	return func(cfg *serverConfig) error {
		if name == "" {
			return errors.New("server name cannot be empty")
		}
		cfg.serverName = name
		return nil
	}
}

// WithReadTimeout bounds each socket read while receiving a request,
// so a slow client cannot starve the connection loop. Defaults to 5s.
func WithReadTimeout(d time.Duration) Option {
	return func(cfg *serverConfig) error {
		if d <= 0 {
			return errors.New("read timeout must be positive")
		}
		cfg.readTimeout = d
		return nil
	}
}

// WithPollInterval sets the readiness-poll timeout of the connection
// loop. Shorter intervals react faster to shutdown and newly joined
// stream clients at the cost of more wakeups. Defaults to 100ms.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *serverConfig) error {
		if d <= 0 {
			return errors.New("poll interval must be positive")
		}
		cfg.pollInterval = d
		return nil
	}
}

// WithCORS sets the cross-origin policy. Defaults to
// [DefaultCORSConfig].
//
// Example:
//
//	srv, err := httpserver.New(
//	    httpserver.WithRouter(router),
//	    httpserver.WithCORS(httpserver.CORSConfig{
//	        AllowOrigins:     []string{"http://localhost:3000"},
//	        AllowMethods:     []string{"GET", "POST", "OPTIONS"},
//	        AllowHeaders:     []string{"Content-Type", "Authorization"},
//	        AllowCredentials: true,
//	        MaxAge:           3600,
//	    }),
//	)
func WithCORS(cors CORSConfig) Option {
	return func(cfg *serverConfig) error {
		cfg.cors = cors
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified,
// [slog.Default] is used.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serverConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithMetrics exposes Prometheus metrics for requests, event-stream
// clients, and published events on GET /metrics.
func WithMetrics() Option {
	return func(cfg *serverConfig) error {
		cfg.metrics = true
		return nil
	}
}
