// Package main is the entry point for the httpserver CLI.
//
// The server can be run either as a library (SDK) or as a standalone
// binary with YAML configuration. This CLI provides the standalone
// binary approach.
//
// Usage:
//
//	httpserver serve -c config.yaml    # Start the server
//	httpserver validate -c config.yaml # Validate configuration
//	httpserver version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "httpserver",
	Short: "A minimal single-process HTTP server",
	Long: `A minimal, single-process HTTP/1.1 server with routing, CORS,
and Server-Sent Events.

It serves static files and SSE heartbeat streams defined in a YAML
configuration file, all from one readiness-polling connection loop.

Quick start:
  1. Create a config file (config.yaml)
  2. Run: httpserver serve -c config.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  port: 8080
  static:
    - path: /
      file: index.html
  streams:
    - path: /events
      event: clock
      interval: 1s`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this httpserver binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("httpserver %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
