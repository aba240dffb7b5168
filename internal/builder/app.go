package builder

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/futig/docgen-gateway/internal/usecase/notify"
	"github.com/futig/docgen-gateway/internal/workspace"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App represents the application with all its components
type App struct {
	server   *http.Server
	db       *pgxpool.Pool
	registry *workspace.Registry
	sink     *notify.Sink
	logger   *zap.Logger
}

// Run serves HTTP until SIGINT/SIGTERM or a server error
func (a *App) Run() error {
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.logger.Error("Server error", zap.Error(err))
		a.release()
		return err
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	return a.shutdown()
}

// shutdown stops accepting requests, then closes every generation connection and
// waits for pending notifications before releasing the database
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.logger.Info("Shutting down server gracefully")

	err := a.server.Shutdown(ctx)
	if err != nil {
		a.logger.Error("Server shutdown error", zap.Error(err))
	}

	a.release()

	a.logger.Info("Application stopped gracefully")
	_ = a.logger.Sync()
	return err
}

func (a *App) release() {
	a.logger.Info("Closing workspaces", zap.Int("count", a.registry.Len()))
	a.registry.Close()
	a.sink.Close()

	if a.db != nil {
		a.logger.Info("Closing database connections")
		a.db.Close()
	}
}
