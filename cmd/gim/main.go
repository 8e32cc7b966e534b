// Package main is the entry point for the gim CLI.
//
//	@title						gim API
//	@version					1.0
//	@description				Issue discovery platform with hybrid search and personalized feeds
//	@host						localhost:8080
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	APIKeyAuth
//	@in							header
//	@name						X-API-KEY
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gimlabs/gim/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gim",
		Short: "gim issue discovery server",
		Long:  `gim discovers open GitHub issues, ranks them with hybrid search, and serves personalized contribution feeds.`,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(workerCmd())
	cmd.AddCommand(stdioCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
