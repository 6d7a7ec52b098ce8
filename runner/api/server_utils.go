package api

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// RunServer serves until ctx is cancelled, the process receives SIGINT or
// SIGTERM, or serving fails, then shuts the server down
func RunServer(ctx context.Context, s *Server, logger logrus.FieldLogger) error {
	if err := s.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	logger.Info("Press Ctrl+C to stop the server")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		logger.Info("Received shutdown signal, shutting down API server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down API server...")
	case err, ok := <-s.Err():
		if ok {
			return fmt.Errorf("API server failed: %w", err)
		}
	}
	return s.Stop()
}
