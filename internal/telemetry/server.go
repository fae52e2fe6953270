package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/mortar/internal/ctxlog"
)

// Server serves /health and /metrics.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// Handler returns the mux the server uses.
func Handler(ctx context.Context, m *Metrics) http.Handler {
	logger := ctxlog.FromContext(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry}))
	return mux
}

// StartServer listens on addr and serves in the background. Use ":0" for
// a random port.
func StartServer(ctx context.Context, addr string, m *Metrics) (*Server, error) {
	logger := ctxlog.FromContext(ctx)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s := &Server{
		httpServer: &http.Server{
			Handler:           Handler(ctx, m),
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
	}

	go func() {
		logger.Info("Health check server starting", "address", fmt.Sprintf("http://%s/health", ln.Addr()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
	return s, nil
}

// Addr is the address the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the server, waiting at most five seconds for in-flight
// requests.
func (s *Server) Shutdown(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Shutting down health check server...")

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("health check server shutdown failed: %w", err)
	}
	return nil
}
