// Package config provides YAML configuration parsing for the
// standalone httpserver binary.
//
// This package enables running the server from a configuration file,
// as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	log_level: INFO
//	max_request_size: 16384
//
//	cors:
//	  allow_origins: ["http://localhost:3000"]
//	  allow_methods: [GET, POST, OPTIONS]
//	  allow_headers: [Content-Type, Authorization]
//	  allow_credentials: true
//	  max_age: 3600
//
//	static:
//	  - path: /
//	    file: index.html
//	  - path: /style.css
//	    file: style.css
//
//	streams:
//	  - path: /events
//	    event: clock
//	    interval: 1s
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ishangavidusha/httpserver"
)

const (
	defaultPort           = 8080
	defaultLogLevel       = "INFO"
	defaultMaxRequestSize = 8192
	defaultReadTimeout    = 5 * time.Second
	defaultPollInterval   = 100 * time.Millisecond
	defaultStreamInterval = time.Second

	// minPollInterval keeps the connection loop from busy-spinning.
	minPollInterval = time.Millisecond
)

// Config is the root configuration structure for the server binary.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Host is the listen address. Empty binds all interfaces.
	Host string `yaml:"host"`

	// Port is the TCP port to listen on. Defaults to 8080.
	Port int `yaml:"port"`

	// LogLevel is the minimum log level: DEBUG, INFO, WARNING, ERROR,
	// or CRITICAL. Defaults to INFO.
	LogLevel string `yaml:"log_level"`

	// ServerName overrides the Server response header.
	ServerName string `yaml:"server_name"`

	// MaxRequestSize caps one request's total bytes. Defaults to 8192.
	MaxRequestSize int `yaml:"max_request_size"`

	// ReadTimeout bounds each socket read while receiving a request.
	// Accepts duration strings like "5s" or "500ms". Defaults to 5s.
	ReadTimeout Duration `yaml:"read_timeout"`

	// PollInterval is the readiness-poll timeout of the connection
	// loop. Defaults to 100ms.
	PollInterval Duration `yaml:"poll_interval"`

	// Metrics exposes Prometheus metrics on GET /metrics.
	Metrics bool `yaml:"metrics"`

	// StaticDir is the directory static routes are served from.
	// Supports environment variable substitution: ${VAR} or
	// ${VAR:-default}. Defaults to the working directory.
	StaticDir string `yaml:"static_dir"`

	// CORS is the cross-origin policy. Nil uses the defaults.
	CORS *CORSSection `yaml:"cors"`

	// Static defines file-serving routes.
	Static []StaticRoute `yaml:"static"`

	// Streams defines Server-Sent-Events heartbeat routes.
	Streams []StreamRoute `yaml:"streams"`
}

// CORSSection mirrors httpserver.CORSConfig in YAML form.
type CORSSection struct {
	AllowOrigins     []string `yaml:"allow_origins"`
	AllowMethods     []string `yaml:"allow_methods"`
	AllowHeaders     []string `yaml:"allow_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// StaticRoute serves one file from the static directory at a path.
type StaticRoute struct {
	// Path is the request path, e.g. "/style.css".
	Path string `yaml:"path"`

	// File is the file name inside static_dir.
	File string `yaml:"file"`

	// ContentType overrides the content type derived from the file
	// extension.
	ContentType string `yaml:"content_type"`
}

// StreamRoute is an SSE route that publishes a timestamp heartbeat
// under a named event at a fixed interval.
type StreamRoute struct {
	// Path is the request path, e.g. "/events".
	Path string `yaml:"path"`

	// Event is the SSE event name.
	Event string `yaml:"event"`

	// Interval is the time between heartbeats. Defaults to 1s.
	Interval Duration `yaml:"interval"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults, expands
// environment variables, and validates every field.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.MaxRequestSize == 0 {
		cfg.MaxRequestSize = defaultMaxRequestSize
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = Duration(defaultReadTimeout)
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}
	for i := range cfg.Streams {
		if cfg.Streams[i].Interval == 0 {
			cfg.Streams[i].Interval = Duration(defaultStreamInterval)
		}
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if _, err := httpserver.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if c.MaxRequestSize < 1 {
		return fmt.Errorf("max_request_size must be positive, got %d", c.MaxRequestSize)
	}

	if c.ReadTimeout.Duration() <= 0 {
		return fmt.Errorf("read_timeout must be positive, got %s", c.ReadTimeout.Duration())
	}

	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}

	if c.StaticDir != "" {
		expanded, err := expandEnvVars(c.StaticDir)
		if err != nil {
			return fmt.Errorf("static_dir: %w", err)
		}
		c.StaticDir = expanded
	}

	seen := make(map[string]bool, len(c.Static)+len(c.Streams))
	for i := range c.Static {
		st := &c.Static[i]

		if err := validatePath(st.Path); err != nil {
			return fmt.Errorf("static[%d]: %w", i, err)
		}
		if seen[st.Path] {
			return fmt.Errorf("static[%d]: duplicate path %q", i, st.Path)
		}
		seen[st.Path] = true

		if st.File == "" {
			return fmt.Errorf("static[%d] (%s): file is required", i, st.Path)
		}
		expanded, err := expandEnvVars(st.File)
		if err != nil {
			return fmt.Errorf("static[%d] (%s): file: %w", i, st.Path, err)
		}
		st.File = expanded
	}

	for i, sr := range c.Streams {
		if err := validatePath(sr.Path); err != nil {
			return fmt.Errorf("streams[%d]: %w", i, err)
		}
		if seen[sr.Path] {
			return fmt.Errorf("streams[%d]: duplicate path %q", i, sr.Path)
		}
		seen[sr.Path] = true

		if sr.Event == "" {
			return fmt.Errorf("streams[%d] (%s): event is required", i, sr.Path)
		}
		if sr.Interval.Duration() < 10*time.Millisecond {
			return fmt.Errorf("streams[%d] (%s): interval must be at least 10ms, got %s",
				i, sr.Path, sr.Interval.Duration())
		}
	}

	if len(c.Static) == 0 && len(c.Streams) == 0 {
		return fmt.Errorf("at least one static or stream route is required")
	}

	return nil
}

// validatePath checks a route path.
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path is required")
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("path %q must start with /", path)
	}
	return nil
}
