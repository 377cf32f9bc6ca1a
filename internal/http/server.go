package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
}

func NewServer(cfg RouterConfig) *Server {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Server{Engine: NewRouter(cfg), log: log.With("component", "HTTPServer")}
}

// Run serves on address until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
