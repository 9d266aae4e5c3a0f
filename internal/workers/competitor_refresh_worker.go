package workers

import (
	"context"
	"time"

	"github.com/PortNumber53/content-strategy-engine/internal/logging"
	"github.com/PortNumber53/content-strategy-engine/internal/models"
	"github.com/sirupsen/logrus"
)

// RefreshQueue hands out stale competitors and records each refresh attempt so that
// competitors which keep failing do not starve the rest of the queue.
type RefreshQueue interface {
	ListStaleCompetitors(ctx context.Context, cutoff time.Time, limit int) ([]models.Competitor, error)
	MarkCompetitorAttempted(ctx context.Context, id string, at time.Time) error
}

type CompetitorRefresher interface {
	Refresh(ctx context.Context, c models.Competitor) (models.Competitor, error)
}

// CompetitorRefreshWorker periodically re-fetches competitors whose posts are older than StaleAfter.
type CompetitorRefreshWorker struct {
	Store      RefreshQueue
	Refresher  CompetitorRefresher
	Logger     *logrus.Logger
	Interval   time.Duration // default: 6h
	StaleAfter time.Duration // default: 24h
	Batch      int           // competitors per pass (default: 20)

	now func() time.Time
}

// Start begins the refresh loop. It returns when ctx is done.
func (w *CompetitorRefreshWorker) Start(ctx context.Context) {
	w.defaults()
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.Logger.WithFields(logrus.Fields{"interval": w.Interval, "stale_after": w.StaleAfter, "batch": w.Batch}).Info("[CompetitorRefreshWorker] started")

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("[CompetitorRefreshWorker] stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

func (w *CompetitorRefreshWorker) defaults() {
	if w.Interval <= 0 {
		w.Interval = 6 * time.Hour
	}
	if w.StaleAfter <= 0 {
		w.StaleAfter = 24 * time.Hour
	}
	if w.Batch <= 0 {
		w.Batch = 20
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.Logger == nil {
		w.Logger = logging.Discard()
	}
}

// RunOnce refreshes one batch of stale competitors and reports how many succeeded.
// Every attempt is recorded before refreshing. A failing competitor is logged and
// skipped; it stays stale but goes behind the competitors not yet attempted.
func (w *CompetitorRefreshWorker) RunOnce(ctx context.Context) int {
	w.defaults()
	cutoff := w.now().Add(-w.StaleAfter)
	due, err := w.Store.ListStaleCompetitors(ctx, cutoff, w.Batch)
	if err != nil {
		w.Logger.WithError(err).Error("[CompetitorRefreshWorker] list stale failed")
		return 0
	}
	refreshed := 0
	for _, c := range due {
		if ctx.Err() != nil {
			break
		}
		if err := w.Store.MarkCompetitorAttempted(ctx, c.ID, w.now()); err != nil {
			w.Logger.WithField("id", c.ID).WithError(err).Warn("[CompetitorRefreshWorker] mark attempt failed")
		}
		if _, err := w.Refresher.Refresh(ctx, c); err != nil {
			w.Logger.WithFields(logrus.Fields{"id": c.ID, "platform": c.Platform}).WithError(err).Warn("[CompetitorRefreshWorker] refresh failed")
			continue
		}
		refreshed++
	}
	if refreshed > 0 {
		w.Logger.WithFields(logrus.Fields{"refreshed": refreshed, "due": len(due)}).Info("[CompetitorRefreshWorker] pass done")
	}
	return refreshed
}
