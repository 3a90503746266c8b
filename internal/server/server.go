// Package server exposes the registered PDF tools over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/vishalharkal15/pdf-convert/internal/config"
	"github.com/vishalharkal15/pdf-convert/internal/telemetry"
	"github.com/vishalharkal15/pdf-convert/internal/tools"
)

// RoutePrefix is prepended to every tool name
const RoutePrefix = "/pdf/"

// Server serves one route per tool
type Server struct {
	cfg       *config.Config
	logger    *logrus.Logger
	handler   http.Handler
	toolNames []string
}

// New builds the routes and middleware chain for the given tools
func New(cfg *config.Config, logger *logrus.Logger, toolset map[string]tools.Tool) *Server {
	s := &Server{cfg: cfg, logger: logger}

	mux := http.NewServeMux()
	for name, tool := range toolset {
		mux.Handle(RoutePrefix+name, s.toolHandler(tool))
		s.toolNames = append(s.toolNames, name)
	}
	sort.Strings(s.toolNames)

	mux.HandleFunc("/healthz", s.healthHandler)
	mux.HandleFunc("/", s.notFoundHandler)

	s.handler = Chain(mux,
		Recover(logger),
		RequestID(),
		AccessLog(logger),
		RateLimit(logger, cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		telemetry.WrapHTTPHandler,
	)

	return s
}

// Handler returns the complete handler including middleware
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on cfg.Addr() until ctx is cancelled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// newServerErrorLog routes net/http's internal errors through logrus
func newServerErrorLog(logger *logrus.Logger) *log.Logger {
	return log.New(logger.WriterLevel(logrus.WarnLevel), "", 0)
}

// Serve is ListenAndServe on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		ErrorLog:     newServerErrorLog(s.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"addr":  ln.Addr().String(),
			"tools": s.toolNames,
		}).Info("Starting HTTP server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
