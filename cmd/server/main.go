// Package main is the entry point for the SSH tools MCP server.
// Supports stdio (for local MCP hosts) and Streamable HTTP transports.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ssh-tools-mcp/internal/config"
	"ssh-tools-mcp/internal/logging"
	"ssh-tools-mcp/internal/probe"
	"ssh-tools-mcp/internal/tools"

	"github.com/BurntSushi/toml"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	serverName    = "ssh-tools-mcp"
	serverVersion = "1.0.0"

	shutdownTimeout = 30 * time.Second
)

type options struct {
	configPath string
	mode       string
	port       string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           serverName,
		Short:         "MCP server exposing SSH diagnostics and command generation tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalogue as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTools(cmd, opts)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfig(cmd, opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (.toml, .yaml, .yml or .json)")
	pf.StringVar(&opts.mode, "mode", config.ModeStdio, "Transport mode: stdio or http")
	pf.StringVar(&opts.port, "port", "8000", "HTTP server port (http mode only)")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, toolsCmd, configCmd)
	return rootCmd
}

// loadConfig resolves the configuration. Precedence: Flag > Env > File > Default.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Server.Mode = opts.mode
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if flags.Changed("debug") && opts.debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newDispatcher(cfg *config.Config) (*tools.Dispatcher, error) {
	return tools.NewDefaultDispatcher(tools.Deps{
		Prober: probe.New(cfg.ConnectTimeout(), cfg.ScanTimeout()),
		SSHDir: cfg.Audit.SSHDir,
	})
}

func runServe(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log.Info().
		Str("version", serverVersion).
		Str("mode", cfg.Server.Mode).
		Str("port", cfg.Server.Port).
		Str("ssh_dir", cfg.Audit.SSHDir).
		Msgf("Starting %s", serverName)

	d, err := newDispatcher(cfg)
	if err != nil {
		return err
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(createSessionHooks()),
	)

	tools.RegisterAll(mcpServer, d)

	switch cfg.Server.Mode {
	case config.ModeHTTP:
		return runHTTP(mcpServer, cfg.Server.Port)
	default:
		return runStdio(mcpServer)
	}
}

func runTools(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	d, err := newDispatcher(cfg)
	if err != nil {
		return err
	}

	descs := d.ListTools()
	out := make([]mcp.Tool, 0, len(descs))
	for _, desc := range descs {
		out = append(out, tools.MCPTool(desc))
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runConfig(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
}

// createSessionHooks logs session lifecycle events.
func createSessionHooks() *server.Hooks {
	hooks := &server.Hooks{}
	logger := logging.Component("session")

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		logger.Info().Str("session", session.SessionID()).Msg("Session started")
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		logger.Info().Str("session", session.SessionID()).Msg("Session ended")
	})

	return hooks
}

// runStdio runs the server in stdio mode.
func runStdio(s *server.MCPServer) error {
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("stdio server error: %w", err)
	}
	return nil
}

// runHTTP runs the server in Streamable HTTP mode with graceful shutdown.
func runHTTP(s *server.MCPServer, port string) error {
	httpServer := server.NewStreamableHTTPServer(s)
	logger := logging.Component("http")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ":"+port).Msg("Listening")
		errChan <- httpServer.Start(":" + port)
	}()

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Shutdown error")
		return err
	}

	logger.Info().Msg("Server stopped")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
