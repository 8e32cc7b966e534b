package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gimlabs/gim"
	"github.com/gimlabs/gim/internal/log"
	"github.com/gimlabs/gim/internal/mcp"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants search the issue corpus directly. Configuration is
loaded from environment variables and .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	slogger := log.NewWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel())

	slogger.Info("starting MCP server", slog.String("version", version))

	client, err := gim.New(clientOptions(cfg, slogger)...)
	if err != nil {
		return fmt.Errorf("create gim client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("failed to close gim client", slog.Any("error", err))
		}
	}()

	mcpServer := mcp.NewServer(client.Search, client.Issues, version, slogger)
	return mcpServer.ServeStdio()
}
