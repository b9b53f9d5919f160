package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/usecase"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
)

// Closer is a named resource released on shutdown, in reverse order.
type Closer struct {
	Name  string
	Close func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	refresher  *usecase.Refresher
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
	closers    []Closer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	refresher *usecase.Refresher,
	httpServer *xhttp.Server,
	limiter *ratelimit.Limiter,
	closers ...Closer,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		refresher:  refresher,
		httpServer: httpServer,
		limiter:    limiter,
		closers:    closers,
	}
}

// Run starts the refresh loop and the HTTP server and blocks until
// SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run with a caller-owned context.
func (a *App) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		if err := a.refresher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("refresh loop exited", applogger.Error(err))
		}
	}()

	if a.limiter != nil {
		go a.pruneLimiter(ctx)
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		cancel()
		<-refreshDone
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	<-refreshDone
	return a.shutdown()
}

// pruneLimiter drops idle buckets so the limiter does not grow with every
// address that ever called.
func (a *App) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Prune(10 * time.Minute); n > 0 {
				a.log.Debug("rate limiter pruned", applogger.Int("buckets", n))
			}
		}
	}
}

func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	timeout := a.httpServer.ShutdownTimeout()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if c.Close == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.Name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
