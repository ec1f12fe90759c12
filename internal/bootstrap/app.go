package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/yanqian/shopbot/internal/infra/config"
)

// App runs the model server until its context ends.
type App struct {
	cfg    config.HTTPConfig
	logger *slog.Logger
	server *http.Server
}

// NewApp is used by Wire to build the runnable model server.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server) *App {
	return &App{cfg: cfg.HTTP, logger: logger.With("component", "modelserver"), server: server}
}

// Run binds the listener, serves until ctx is cancelled, then drains
// in-flight embed and generate calls for at most the shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return err
	}
	a.logger.Info("model server listening",
		"address", ln.Addr().String(),
		"auth", a.cfg.AuthSecret != "",
		"write_timeout", a.cfg.WriteTimeout.String(),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutdown signal received", "grace", a.cfg.ShutdownTimeout.String())
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		a.logger.Info("model server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
