package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailgate/internal/instrumentation"
	"github.com/teemow/mailgate/internal/logging"
)

// DefaultMCPEndpoint is the path the streamable HTTP transport is mounted on.
const DefaultMCPEndpoint = "/mcp"

// HTTPServerConfig configures the streamable HTTP transport.
type HTTPServerConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string

	// DisableStreaming turns off SSE upgrades for clients that cannot handle them.
	DisableStreaming bool
}

// HTTPServer serves the MCP streamable HTTP transport next to the health
// endpoints.
type HTTPServer struct {
	handler http.Handler
	logger  *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	addr       string
	cfgAddr    string
}

// NewHTTPServer mounts mcpSrv at /mcp and the health checker's endpoints on
// a single mux. Requests are counted with the server context's metrics.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, sc *ServerContext, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpSrv == nil {
		return nil, fmt.Errorf("mcp server is required")
	}
	if sc == nil {
		return nil, fmt.Errorf("server context is required")
	}

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(DefaultMCPEndpoint),
		mcpserver.WithLogger(logging.NewSlogAdapter(sc.Logger())),
	}
	if config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv, opts...)

	mux := http.NewServeMux()
	mux.Handle(DefaultMCPEndpoint, streamable)
	NewHealthChecker(sc).RegisterHealthEndpoints(mux)

	return &HTTPServer{
		handler: instrumentHandler(mux, sc.Metrics()),
		logger:  sc.Logger(),
		cfgAddr: config.Addr,
	}, nil
}

// Handler returns the instrumented mux.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Start binds the listen address, closes ready once the socket is open and
// serves until Shutdown. It returns http.ErrServerClosed after a clean stop.
func (s *HTTPServer) Start(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.cfgAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfgAddr, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	s.logger.Info("mcp http server listening", "addr", s.addr, "endpoint", DefaultMCPEndpoint)
	if ready != nil {
		close(ready)
	}
	return srv.Serve(ln)
}

// Addr returns the bound address once Start has opened the listener.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != "" {
		return s.addr
	}
	return s.cfgAddr
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func instrumentHandler(next http.Handler, metrics *instrumentation.Metrics) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
