package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
)

const insertChunk = 2000

var quoteColumns = []string{
	"snapshot_at", "code", "name", "price", "change_pct", "change", "turnover_rate", "volume_ratio",
	"market_cap", "float_market_cap", "high", "low", "open", "prev_close", "volume", "amount", "amplitude",
}

// SnapshotSchema returns the DDL for the archive table.
func SnapshotSchema(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	snapshot_at DateTime64(3, 'Asia/Shanghai'),
	code LowCardinality(String),
	name String,
	price Float64,
	change_pct Float64,
	change Float64,
	turnover_rate Float64,
	volume_ratio Float64,
	market_cap Float64,
	float_market_cap Float64,
	high Float64,
	low Float64,
	open Float64,
	prev_close Float64,
	volume Float64,
	amount Float64,
	amplitude Float64
) ENGINE = MergeTree
PARTITION BY toYYYYMM(snapshot_at)
ORDER BY (code, snapshot_at)
TTL toDateTime(snapshot_at) + INTERVAL 180 DAY`, table)}
}

// ClickHouseSnapshotArchive stores every good snapshot as rows of quote_snapshots.
type ClickHouseSnapshotArchive struct {
	db    *sql.DB
	table string
	close func() error
}

// NewClickHouseSnapshotArchive wraps db. closeFn, if set, releases the
// underlying client.
func NewClickHouseSnapshotArchive(db *sql.DB, table string, closeFn func() error) *ClickHouseSnapshotArchive {
	if table == "" {
		table = "quote_snapshots"
	}
	return &ClickHouseSnapshotArchive{db: db, table: table, close: closeFn}
}

var _ drepo.SnapshotArchive = (*ClickHouseSnapshotArchive)(nil)

func (a *ClickHouseSnapshotArchive) Init(ctx context.Context) error {
	for _, stmt := range SnapshotSchema(a.table) {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init %s: %w", a.table, err)
		}
	}
	return nil
}

// Insert writes snap in multi-row VALUES chunks.
func (a *ClickHouseSnapshotArchive) Insert(ctx context.Context, snap models.Snapshot) error {
	for start := 0; start < snap.Len(); start += insertChunk {
		end := start + insertChunk
		if end > snap.Len() {
			end = snap.Len()
		}
		q, args := buildInsert(a.table, snap, start, end)
		if len(args) == 0 {
			continue
		}
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert %s rows %d-%d: %w", a.table, start, end, err)
		}
	}
	return nil
}

func buildInsert(table string, snap models.Snapshot, start, end int) (string, []interface{}) {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(quoteColumns)), ", ") + ")"
	values := make([]string, 0, end-start)
	args := make([]interface{}, 0, (end-start)*len(quoteColumns))
	for _, q := range snap.Quotes[start:end] {
		if q.Code == "" {
			continue
		}
		values = append(values, row)
		args = append(args,
			snap.FetchedAt, q.Code, q.Name, q.Price, q.ChangePct, q.Change, q.TurnoverRate, q.VolumeRatio,
			q.MarketCap, q.FloatMarketCap, q.High, q.Low, q.Open, q.PrevClose, q.Volume, q.Amount, q.Amplitude,
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, strings.Join(quoteColumns, ", "), strings.Join(values, ","))
	return q, args
}

// Recent returns the newest archived rows for code, newest first.
func (a *ClickHouseSnapshotArchive) Recent(ctx context.Context, code string, limit int) ([]models.ArchivedQuote, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE code = ? ORDER BY snapshot_at DESC LIMIT ?", strings.Join(quoteColumns, ", "), a.table)
	rows, err := a.db.QueryContext(ctx, q, code, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", a.table, err)
	}
	defer rows.Close()

	out := make([]models.ArchivedQuote, 0, limit)
	for rows.Next() {
		var r models.ArchivedQuote
		if err := rows.Scan(
			&r.SnapshotAt, &r.Code, &r.Name, &r.Price, &r.ChangePct, &r.Change, &r.TurnoverRate, &r.VolumeRatio,
			&r.MarketCap, &r.FloatMarketCap, &r.High, &r.Low, &r.Open, &r.PrevClose, &r.Volume, &r.Amount, &r.Amplitude,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (a *ClickHouseSnapshotArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseSnapshotArchive) Close() error {
	if a.close != nil {
		return a.close()
	}
	return nil
}
