package config

import (
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
streams:
  - path: /events
    event: tick
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("LogLevel = %q, want INFO", cfg.LogLevel)
	}
	if cfg.MaxRequestSize != 8192 {
		t.Errorf("MaxRequestSize = %d, want 8192", cfg.MaxRequestSize)
	}
	if cfg.ReadTimeout.Duration() != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.ReadTimeout.Duration())
	}
	if cfg.PollInterval.Duration() != 100*time.Millisecond {
		t.Errorf("PollInterval = %v, want 100ms", cfg.PollInterval.Duration())
	}
	if cfg.Streams[0].Interval.Duration() != time.Second {
		t.Errorf("stream Interval = %v, want 1s", cfg.Streams[0].Interval.Duration())
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
host: 127.0.0.1
port: 9090
log_level: DEBUG
server_name: test-server
max_request_size: 16384
read_timeout: 2s
poll_interval: 50ms
metrics: true
static_dir: /tmp/static

cors:
  allow_origins: ["http://localhost:3000", "https://example.com"]
  allow_methods: [GET, POST, PUT, DELETE, OPTIONS]
  allow_headers: [Content-Type, Authorization]
  allow_credentials: true
  max_age: 3600

static:
  - path: /
    file: index.html
  - path: /style.css
    file: style.css
    content_type: text/css

streams:
  - path: /events
    event: clock
    interval: 250ms
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1", cfg.Host)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want DEBUG", cfg.LogLevel)
	}
	if cfg.ServerName != "test-server" {
		t.Errorf("ServerName = %q, want test-server", cfg.ServerName)
	}
	if cfg.MaxRequestSize != 16384 {
		t.Errorf("MaxRequestSize = %d, want 16384", cfg.MaxRequestSize)
	}
	if !cfg.Metrics {
		t.Error("Metrics = false, want true")
	}
	if cfg.CORS == nil {
		t.Fatal("CORS = nil, want section")
	}
	if len(cfg.CORS.AllowOrigins) != 2 {
		t.Errorf("len(CORS.AllowOrigins) = %d, want 2", len(cfg.CORS.AllowOrigins))
	}
	if !cfg.CORS.AllowCredentials {
		t.Error("CORS.AllowCredentials = false, want true")
	}
	if cfg.CORS.MaxAge != 3600 {
		t.Errorf("CORS.MaxAge = %d, want 3600", cfg.CORS.MaxAge)
	}
	if len(cfg.Static) != 2 {
		t.Fatalf("len(Static) = %d, want 2", len(cfg.Static))
	}
	if cfg.Static[1].ContentType != "text/css" {
		t.Errorf("Static[1].ContentType = %q, want text/css", cfg.Static[1].ContentType)
	}
	if len(cfg.Streams) != 1 {
		t.Fatalf("len(Streams) = %d, want 1", len(cfg.Streams))
	}
	if cfg.Streams[0].Interval.Duration() != 250*time.Millisecond {
		t.Errorf("Streams[0].Interval = %v, want 250ms", cfg.Streams[0].Interval.Duration())
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("port: [not a port"))
	if err == nil {
		t.Error("Parse() expected error for invalid YAML, got nil")
	}
}

func TestParse_NoRoutes(t *testing.T) {
	_, err := Parse([]byte("port: 8080"))
	if err == nil {
		t.Fatal("Parse() expected error for config without routes, got nil")
	}
	if !strings.Contains(err.Error(), "at least one") {
		t.Errorf("error = %v, want mention of missing routes", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "port out of range",
			yaml: `
port: 99999
streams:
  - path: /events
    event: tick
`,
			wantErr: "port",
		},
		{
			name: "unknown log level",
			yaml: `
log_level: VERBOSE
streams:
  - path: /events
    event: tick
`,
			wantErr: "log_level",
		},
		{
			name: "negative max request size",
			yaml: `
max_request_size: -1
streams:
  - path: /events
    event: tick
`,
			wantErr: "max_request_size",
		},
		{
			name: "static path without slash",
			yaml: `
static:
  - path: style.css
    file: style.css
`,
			wantErr: "must start with /",
		},
		{
			name: "static route without file",
			yaml: `
static:
  - path: /style.css
`,
			wantErr: "file is required",
		},
		{
			name: "stream without event",
			yaml: `
streams:
  - path: /events
`,
			wantErr: "event is required",
		},
		{
			name: "stream interval too small",
			yaml: `
streams:
  - path: /events
    event: tick
    interval: 1ms
`,
			wantErr: "interval",
		},
		{
			name: "duplicate paths",
			yaml: `
static:
  - path: /x
    file: a.html
streams:
  - path: /x
    event: tick
`,
			wantErr: "duplicate path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	yaml := `
read_timeout: fast
streams:
  - path: /events
    event: tick
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v, want invalid duration", err)
	}
}

func TestParse_EnvSubstitution(t *testing.T) {
	t.Setenv("STATIC_ROOT", "/srv/www")

	yaml := `
static_dir: ${STATIC_ROOT}
static:
  - path: /
    file: ${INDEX_FILE:-index.html}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.StaticDir != "/srv/www" {
		t.Errorf("StaticDir = %q, want /srv/www", cfg.StaticDir)
	}
	if cfg.Static[0].File != "index.html" {
		t.Errorf("Static[0].File = %q, want index.html (default applied)", cfg.Static[0].File)
	}
}

func TestParse_EnvSubstitutionMissingVar(t *testing.T) {
	yaml := `
static:
  - path: /
    file: ${DEFINITELY_NOT_SET_ANYWHERE}
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for unset env var, got nil")
	}
	if !strings.Contains(err.Error(), "DEFINITELY_NOT_SET_ANYWHERE") {
		t.Errorf("error = %v, want it to name the variable", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}
