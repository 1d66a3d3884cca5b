package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"funding-core/pkg/logger"
)

// App owns the HTTP server lifecycle and shuts it down cleanly on
// SIGINT/SIGTERM before running the registered cleanup hooks.
type App struct {
	httpServer *http.Server
	cleanups   []func()
}

func NewApp(httpPort string, router http.Handler) *App {
	return &App{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", httpPort),
			Handler: router,
		},
	}
}

// OnShutdown registers a cleanup hook. Hooks run in reverse registration
// order after the HTTP server has drained.
func (a *App) OnShutdown(fn func()) {
	a.cleanups = append(a.cleanups, fn)
}

// Run blocks until a termination signal arrives, then drains in-flight
// requests with a bounded grace period.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("http server forced to shut down", zap.Error(err))
	}

	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	logger.Info("server exited")
	return nil
}
