package repository

import (
	"context"

	"StockPulse/internal/domain/models"
)

// MarketProvider fetches market data from an external source.
type MarketProvider interface {
	FetchSnapshot(ctx context.Context) (models.Snapshot, error)
	FetchDailyBars(ctx context.Context, code string, days int) ([]models.Bar, error)
}

// SnapshotListener is notified after each good snapshot is stored.
// It receives its own copy.
type SnapshotListener interface {
	OnSnapshot(ctx context.Context, snap models.Snapshot)
}

// ListenerFunc adapts a function to SnapshotListener.
type ListenerFunc func(ctx context.Context, snap models.Snapshot)

func (f ListenerFunc) OnSnapshot(ctx context.Context, snap models.Snapshot) { f(ctx, snap) }

// SnapshotArchive persists snapshots for per-code history.
type SnapshotArchive interface {
	Init(ctx context.Context) error
	Insert(ctx context.Context, snap models.Snapshot) error
	Recent(ctx context.Context, code string, limit int) ([]models.ArchivedQuote, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher emits buy-signal events.
type SignalPublisher interface {
	Publish(ctx context.Context, sig models.BuySignal) error
	PublishBatch(ctx context.Context, sigs []models.BuySignal) error
	Close() error
}

type Metrics interface {
	RecordRefresh(result string, seconds float64)
	RecordSnapshotRows(n int)
	RecordConsecutiveErrors(n int)
	RecordError(kind string)
	RecordSignalPublished(code string)
	RecordLatency(op string, seconds float64)
}
