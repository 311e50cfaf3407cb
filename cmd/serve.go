package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailgate/internal/config"
	"github.com/teemow/mailgate/internal/google"
	"github.com/teemow/mailgate/internal/instrumentation"
	"github.com/teemow/mailgate/internal/resources"
	"github.com/teemow/mailgate/internal/server"
	"github.com/teemow/mailgate/internal/tools/gate_tools"
	"github.com/teemow/mailgate/internal/tools/google_tools"
)

// Transport names accepted by --transport.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// serveOptions holds the serve command's flags.
type serveOptions struct {
	transport        string
	httpAddr         string
	yolo             bool
	disableStreaming bool
	metricsEnabled   bool
	metricsAddr      string
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server so AI assistants can send
mail through the gate and screen inbound mail.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp

Safety Mode:
  By default the server is read-only for approvals: agents can send (which
  queues unknown recipients), list pending mail and screen inbound mail.
  Use --yolo to also expose the approve and reject tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateTransport(so.transport); err != nil {
				return err
			}
			applyMetricsEnv(cmd, so)
			return withRuntime(cmd, opts, func(rt *runtime) error {
				return runServe(cmd, rt, so)
			})
		},
	}

	cmd.Flags().StringVar(&so.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&so.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&so.yolo, "yolo", false, "Expose the approve and reject tools. Default is read-only approvals.")
	cmd.Flags().BoolVar(&so.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&so.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&so.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func validateTransport(transport string) error {
	switch transport {
	case transportStdio, transportStreamableHTTP:
		return nil
	}
	return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
}

// applyMetricsEnv lets METRICS_ENABLED and METRICS_ADDR fill flags that were
// not given on the command line.
func applyMetricsEnv(cmd *cobra.Command, so *serveOptions) {
	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				so.metricsEnabled = enabled
			}
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if v := os.Getenv("METRICS_ADDR"); v != "" {
			so.metricsAddr = v
		}
	}
}

func runServe(cmd *cobra.Command, rt *runtime, so *serveOptions) error {
	shutdownCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := rt.logger.With("transport", so.transport)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()

	var metricsServer *server.MetricsServer
	if so.transport != transportStdio && so.metricsEnabled && provider.Enabled() &&
		instrConfig.MetricsExporter == instrumentation.ExporterPrometheus {
		metricsServer, err = startMetricsServer(provider, so.metricsAddr, rt)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}()
	}

	// Over stdio the protocol owns stdout, so printed mail goes to stderr.
	var mailOut io.Writer = cmd.OutOrStdout()
	if so.transport == transportStdio {
		mailOut = cmd.ErrOrStderr()
	}

	services, err := rt.services(shutdownCtx, mailOut, provider.Metrics())
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(shutdownCtx, services,
		server.WithMetrics(provider.Metrics()),
		server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(rt.logger, instrConfig.AuditLogging)),
		server.WithLogger(rt.logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", "error", err)
		}
	}()

	mcpSrv := newMCPServer()

	readOnly := !so.yolo
	if readOnly {
		logger.Info("starting server with read-only approvals (use --yolo to expose approve and reject)")
	} else {
		logger.Info("starting server with approve and reject enabled (--yolo flag is set)")
	}

	var gmailAccount string
	if rt.cfg.Provider.Name == config.ProviderGmail {
		gmailAccount = rt.cfg.Provider.Gmail.Account
	}
	if err := registerAllTools(mcpSrv, serverContext, readOnly, gmailAccount); err != nil {
		return err
	}

	switch so.transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, so)
	default:
		return runStdioServer(mcpSrv)
	}
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("mailgate", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
}

// registerAllTools registers every MCP tool group and resource. The Gmail
// authorization tools are added when gmailAccount is set.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool, gmailAccount string) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Gate tools",
			register: func() error {
				return gate_tools.RegisterGateTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Pending resources",
			register: func() error {
				return resources.RegisterPendingResources(mcpSrv, sc)
			},
		},
	}
	if gmailAccount != "" {
		registrations = append(registrations, toolRegistration{
			name: "Gmail authorization tools",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc, google.NewTokenStore(), gmailAccount)
			},
		})
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func startMetricsServer(provider *instrumentation.Provider, addr string, rt *runtime) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		Logger:                  rt.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		rt.logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, so *serveOptions) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, sc, server.HTTPServerConfig{
		Addr:             so.httpAddr,
		DisableStreaming: so.disableStreaming,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		sc.Logger().Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		return nil
	}
}
