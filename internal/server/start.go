package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start runs the HTTP server and the bus subscribers, then blocks until an
// interrupt arrives and everything is drained.
func (s *Server) Start(addr string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.subscriber.Start(ctx); err != nil {
		slog.Error("Failed to start message subscriber", "error", err)
		os.Exit(1)
	}
	if err := s.bridge.Start(ctx, s.bus); err != nil {
		slog.Error("Failed to start websocket bridge", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server stopped", "error", err)
			cancel()
		}
	}()

	waitForShutdown(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()
	s.gateway.Close()
	if err := s.bus.Close(); err != nil {
		slog.Warn("Bus close failed", "error", err)
	}
	s.traceCleanup()
	s.DB.Close(shutdownCtx)
	if err := s.E.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
}

// waitForShutdown blocks until an interrupt or terminate signal is received,
// or the context is canceled.
func waitForShutdown(ctx context.Context) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
}
