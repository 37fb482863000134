package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ishangavidusha/httpserver/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  httpserver validate -c config.yaml
  httpserver validate --config /etc/httpserver/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:          %d\n", cfg.Port)
	fmt.Printf("  Log level:     %s\n", cfg.LogLevel)
	fmt.Printf("  Read timeout:  %s\n", cfg.ReadTimeout.Duration())
	fmt.Printf("  Routes:        %d static + %d streams = %d total\n",
		len(cfg.Static), len(cfg.Streams), len(cfg.Static)+len(cfg.Streams))

	return nil
}
