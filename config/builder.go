package config

import (
	"context"
	"log/slog"
	"mime"
	"path/filepath"
	"time"

	"github.com/ishangavidusha/httpserver"
)

// BuildOptions converts parsed configuration into SDK server options.
// The returned options do not include the router; pair them with
// [BuildRouter] and httpserver.WithRouter.
func BuildOptions(cfg *Config, logger *slog.Logger) []httpserver.Option {
	opts := []httpserver.Option{
		httpserver.WithHost(cfg.Host),
		httpserver.WithPort(cfg.Port),
		httpserver.WithMaxRequestSize(cfg.MaxRequestSize),
		httpserver.WithReadTimeout(cfg.ReadTimeout.Duration()),
		httpserver.WithPollInterval(cfg.PollInterval.Duration()),
	}

	if cfg.ServerName != "" {
		opts = append(opts, httpserver.WithServerName(cfg.ServerName))
	}
	if cfg.CORS != nil {
		opts = append(opts, httpserver.WithCORS(buildCORS(cfg.CORS)))
	}
	if cfg.Metrics {
		opts = append(opts, httpserver.WithMetrics())
	}
	if logger != nil {
		opts = append(opts, httpserver.WithLogger(logger))
	}
	return opts
}

// buildCORS converts the YAML CORS section into an SDK CORSConfig,
// filling unset lists from the defaults.
func buildCORS(section *CORSSection) httpserver.CORSConfig {
	cors := httpserver.DefaultCORSConfig()
	if len(section.AllowOrigins) > 0 {
		cors.AllowOrigins = section.AllowOrigins
	}
	if len(section.AllowMethods) > 0 {
		cors.AllowMethods = section.AllowMethods
	}
	if len(section.AllowHeaders) > 0 {
		cors.AllowHeaders = section.AllowHeaders
	}
	cors.AllowCredentials = section.AllowCredentials
	cors.MaxAge = section.MaxAge
	return cors
}

// BuildRouter constructs the routing table from the static and stream
// sections. Static routes are served through an fsnotify-backed
// [httpserver.StaticCache] over cfg.StaticDir; the caller owns the
// returned cache and should close it on shutdown. The cache is nil
// when no static routes are configured.
func BuildRouter(cfg *Config, logger *slog.Logger) (*httpserver.Router, *httpserver.StaticCache, error) {
	router := httpserver.NewRouter()

	var cache *httpserver.StaticCache
	if len(cfg.Static) > 0 {
		dir := cfg.StaticDir
		if dir == "" {
			dir = "."
		}
		var err error
		cache, err = httpserver.NewStaticCache(dir, logger)
		if err != nil {
			return nil, nil, err
		}
		for _, st := range cfg.Static {
			contentType := st.ContentType
			if contentType == "" {
				contentType = contentTypeFor(st.File)
			}
			router.Handle(st.Path, []string{"GET"}, cache.Handler(st.File, contentType))
		}
	}

	for _, sr := range cfg.Streams {
		router.HandleStream(sr.Path, heartbeatStream(sr.Event, sr.Interval.Duration()))
	}

	return router, cache, nil
}

// contentTypeFor derives a content type from a file extension,
// defaulting to text/html.
func contentTypeFor(file string) string {
	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		return ct
	}
	return "text/html"
}

// heartbeatStream returns a stream handler that publishes the current
// RFC 3339 timestamp under the given event name at each interval,
// until the client disconnects or the server shuts down.
func heartbeatStream(event string, interval time.Duration) httpserver.StreamHandler {
	return func(ctx context.Context, hub *httpserver.EventHub, headers httpserver.Headers) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				hub.Publish(event, now.Format(time.RFC3339))
			}
		}
	}
}
