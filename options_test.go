package httpserver

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func testRouter() *Router {
	r := NewRouter()
	r.Handle("/", []string{"GET"}, stubHandler("home"))
	return r
}

func TestNew_Defaults(t *testing.T) {
	srv, err := New(WithRouter(testRouter()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if srv.port != 8080 {
		t.Errorf("port = %d, want 8080", srv.port)
	}
	if srv.serverName != "go-httpserver" {
		t.Errorf("serverName = %q, want go-httpserver", srv.serverName)
	}
	if srv.maxRequestSize != 8192 {
		t.Errorf("maxRequestSize = %d, want 8192", srv.maxRequestSize)
	}
	if srv.readTimeout != 5*time.Second {
		t.Errorf("readTimeout = %v, want 5s", srv.readTimeout)
	}
	if srv.pollInterval != 100*time.Millisecond {
		t.Errorf("pollInterval = %v, want 100ms", srv.pollInterval)
	}
	if srv.hub == nil {
		t.Error("hub should be initialized")
	}
}

func TestNew_RequiresRouter(t *testing.T) {
	if _, err := New(); err == nil {
		t.Error("New() without router expected error, got nil")
	}

	if _, err := New(WithRouter(NewRouter())); err == nil {
		t.Error("New() with empty router expected error, got nil")
	}
}

func TestNew_OptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"nil router", WithRouter(nil)},
		{"negative port", WithPort(-1)},
		{"port too large", WithPort(70000)},
		{"zero max request size", WithMaxRequestSize(0)},
		{"empty server name", WithServerName("")},
		{"zero read timeout", WithReadTimeout(0)},
		{"zero poll interval", WithPollInterval(0)},
		{"nil logger", WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(WithRouter(testRouter()), tt.opt); err == nil {
				t.Error("New() expected error, got nil")
			}
		})
	}
}

func TestNew_AppliesOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(
		WithRouter(testRouter()),
		WithHost("127.0.0.1"),
		WithPort(9090),
		WithServerName("custom"),
		WithMaxRequestSize(1024),
		WithReadTimeout(time.Second),
		WithPollInterval(10*time.Millisecond),
		WithLogger(logger),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if srv.host != "127.0.0.1" {
		t.Errorf("host = %q", srv.host)
	}
	if srv.port != 9090 {
		t.Errorf("port = %d", srv.port)
	}
	if srv.serverName != "custom" {
		t.Errorf("serverName = %q", srv.serverName)
	}
	if srv.maxRequestSize != 1024 {
		t.Errorf("maxRequestSize = %d", srv.maxRequestSize)
	}
	if srv.logger != logger {
		t.Error("logger not applied")
	}
}

func TestNew_PortZeroAllowed(t *testing.T) {
	if _, err := New(WithRouter(testRouter()), WithPort(0)); err != nil {
		t.Errorf("New() with port 0 error = %v, want nil", err)
	}
}

func TestNew_MetricsRegistersRoute(t *testing.T) {
	router := testRouter()
	if _, err := New(WithRouter(router), WithMetrics()); err != nil {
		t.Fatalf("New() error = %v", err)
	}

	entry, ok := router.lookup("/metrics")
	if !ok {
		t.Fatal("WithMetrics should register /metrics")
	}
	if _, ok := entry.handlers["GET"]; !ok {
		t.Error("/metrics should answer GET")
	}
}

func TestNew_CustomCORS(t *testing.T) {
	srv, err := New(
		WithRouter(testRouter()),
		WithCORS(CORSConfig{AllowOrigins: []string{"http://a"}}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if len(srv.cors.AllowOrigins) != 1 || srv.cors.AllowOrigins[0] != "http://a" {
		t.Errorf("cors.AllowOrigins = %v", srv.cors.AllowOrigins)
	}
	if strings.Join(srv.cors.AllowMethods, ",") != "" {
		t.Errorf("cors.AllowMethods = %v, want none configured", srv.cors.AllowMethods)
	}
}
