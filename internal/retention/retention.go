// Package retention periodically purges data the application no longer
// needs: read notifications past the retention period and conversations
// whose lost item has been resolved or deleted.
package retention

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"

	"lostfound/pkg/config"
	"lostfound/pkg/logger"
	"lostfound/pkg/models"
	"lostfound/pkg/store"
)

// Start starts the retention scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.RetentionConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("retention_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("retention_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid retention cron expression: %s", cfg.Cron)
	}
	period, err := ParsePeriod(cfg.Period)
	if err != nil {
		return nil, err
	}

	logger.Info("retention_enabled", "cron", cronExpr, "period", period.String())
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, period)
	return cancel, nil
}

// ParsePeriod parses a retention period like "72h", "30d" or "1000s".
func ParsePeriod(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 30 * 24 * time.Hour, nil
	}
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid retention period: %s", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid retention period: %s", s)
	}
	return d, nil
}

// runScheduler sleeps until the next cron tick and triggers a run, until
// the context is cancelled.
func runScheduler(ctx context.Context, cronExpr string, period time.Duration) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunOnce(period); err != nil {
				logger.Error("retention_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("retention_scheduler_stopping")
			return
		}
	}
}

// RunOnce performs a single purge pass: read notifications older than
// the period, and messages of conversations that are settled.
func RunOnce(period time.Duration) error {
	cutoff := time.Now().UTC().Add(-period)

	purgedNotifs, err := store.PurgeReadNotifications(cutoff)
	if err != nil {
		return fmt.Errorf("notification purge failed: %w", err)
	}

	purgedMsgs := 0
	pairs, err := store.AllChatPairs()
	if err != nil {
		return fmt.Errorf("pair scan failed: %w", err)
	}
	for _, p := range pairs {
		lost, err := store.GetItem(p[0])
		if err != nil {
			continue
		}
		if lost.ItemStatus != models.ItemStatusResolved && lost.ItemStatus != models.ItemStatusDeleted {
			continue
		}
		last, err := store.LastMessage(p[0], p[1])
		if err != nil || last.SentTime.After(cutoff) {
			continue
		}
		n, err := store.DeleteMessages(p[0], p[1])
		if err != nil {
			return fmt.Errorf("message purge failed for %s/%s: %w", p[0], p[1], err)
		}
		purgedMsgs += n
	}

	logger.Info("retention_run_complete",
		"purged_notifications", purgedNotifs,
		"purged_messages", purgedMsgs,
		"cutoff", humanize.Time(cutoff))
	return nil
}
