package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/mailgate/internal/approval"
	"github.com/teemow/mailgate/internal/instrumentation"
)

// Services are the gate operations exposed over MCP.
type Services struct {
	Gate     *approval.Gate
	Workflow *approval.Workflow
	Screen   *approval.Screen
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	services Services
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	logger   *slog.Logger
	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithMetrics records tool invocations to m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithAuditLogger logs every tool invocation to al.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.audit = al }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = l }
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, services Services, opts ...Option) (*ServerContext, error) {
	if services.Gate == nil || services.Workflow == nil || services.Screen == nil {
		return nil, fmt.Errorf("gate, workflow and screen are required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		services: services,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Gate returns the outbound gate.
func (sc *ServerContext) Gate() *approval.Gate {
	return sc.services.Gate
}

// Workflow returns the approval workflow.
func (sc *ServerContext) Workflow() *approval.Workflow {
	return sc.services.Workflow
}

// Screen returns the inbound screen.
func (sc *ServerContext) Screen() *approval.Screen {
	return sc.services.Screen
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil when auditing is off.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.audit
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
