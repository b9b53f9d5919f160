package usecase

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

// SnapshotHistory feeds good snapshots into the archive and serves
// per-code history back out of it.
type SnapshotHistory struct {
	archive drepo.SnapshotArchive
	metrics drepo.Metrics
	log     *applogger.Logger
	timeout time.Duration
}

func NewSnapshotHistory(archive drepo.SnapshotArchive, m drepo.Metrics, l *applogger.Logger) *SnapshotHistory {
	if l == nil {
		l = applogger.Nop()
	}
	return &SnapshotHistory{archive: archive, metrics: m, log: l.With("archive"), timeout: 30 * time.Second}
}

var _ drepo.SnapshotListener = (*SnapshotHistory)(nil)

// OnSnapshot archives snap. Failures are logged and counted, never retried.
func (h *SnapshotHistory) OnSnapshot(ctx context.Context, snap models.Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := h.archive.Insert(ctx, snap)
	h.metrics.RecordLatency("archive_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("archive")
		h.log.Error("archive snapshot failed", applogger.Int("rows", snap.Len()), applogger.Error(err))
	}
}

// Recent returns archived rows for code, newest first.
func (h *SnapshotHistory) Recent(ctx context.Context, code string, limit int) ([]models.ArchivedQuote, error) {
	if !util.IsStockCode(code) {
		return nil, drepo.ErrInvalidCode
	}
	if limit <= 0 {
		limit = 100
	}
	return h.archive.Recent(ctx, code, limit)
}
