package app

import (
	"context"
	"fmt"
	"net/http"

	"lostfound/internal/retention"
	"lostfound/pkg/api/handlers"
	"lostfound/pkg/config"
	"lostfound/pkg/logger"
	"lostfound/pkg/notifyq"
	"lostfound/pkg/store"
)

// App encapsulates the daemon components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	queue      *notifyq.Queue
	workerStop chan struct{}
	cancelRet  context.CancelFunc

	srv *http.Server
}

// New initializes resources that do not require a running context (the
// store, uploads dir, notification queue). Call Run to start the HTTP
// server and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	q := notifyq.New(0)
	handlers.Configure(eff.Config.Server.UploadsDir, q)

	a := &App{eff: eff, version: version, commit: commit, buildDate: buildDate, queue: q}
	return a, nil
}

// Run starts the notification worker, the retention scheduler and the
// HTTP server, and blocks until ctx is canceled or a fatal server error
// occurs.
func (a *App) Run(ctx context.Context) error {
	a.workerStop = make(chan struct{})
	go a.queue.RunWorker(a.workerStop, func(op notifyq.Op) error {
		_, err := store.SaveNotification(op.UserID, op.Notification)
		if err != nil {
			logger.Error("notification_write_failed", "user", op.UserID, "error", err)
		}
		return err
	})

	cancelRet, err := retention.Start(ctx, a.eff.Config.Retention)
	if err != nil {
		return err
	}
	a.cancelRet = cancelRet

	a.printBanner()
	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		a.shutdown()
		return err
	}
}

func (a *App) shutdown() {
	if a.cancelRet != nil {
		a.cancelRet()
	}
	if a.workerStop != nil {
		close(a.workerStop)
	}
	if a.srv != nil {
		_ = a.srv.Close()
	}
	if err := store.Close(); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
}

// validateConfig fails fast on configs the daemon cannot run with.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.Addr == "" {
		return fmt.Errorf("no listen address configured")
	}
	if eff.DBPath == "" {
		return fmt.Errorf("no database path configured")
	}
	if eff.Config.Retention.Enabled {
		if _, err := retention.ParsePeriod(eff.Config.Retention.Period); err != nil {
			return err
		}
	}
	return nil
}
