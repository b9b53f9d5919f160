package eastmoney

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	pkghttp "StockPulse/pkg/http"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/retry"
	"StockPulse/pkg/util"
)

// Config describes the two provider endpoints.
type Config struct {
	SnapshotURL string
	KlineURL    string
	Market      string // clist fs= filter
	PageSize    int
	MaxPages    int
	Retry       retry.Policy
	Location    *time.Location
}

// Client implements MarketProvider against the eastmoney push2 endpoints.
type Client struct {
	cfg  Config
	http *pkghttp.Client
	log  *applogger.Logger
	now  func() time.Time
}

// New creates a provider client. httpClient carries timeout and User-Agent.
func New(cfg Config, httpClient *pkghttp.Client, l *applogger.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 100
	}
	if cfg.Location == nil {
		cfg.Location = util.LoadLocation("Asia/Shanghai")
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Client{cfg: cfg, http: httpClient, log: l.With("eastmoney"), now: time.Now}
}

var _ drepo.MarketProvider = (*Client)(nil)

// FetchSnapshot pages through the whole-market list until data.total rows
// have been read. Suspended instruments are dropped.
func (c *Client) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	start := c.now()
	quotes := make([]models.Quote, 0, 5500)
	seen := make(map[string]struct{}, 5500)
	rows := 0

	for page := 1; page <= c.cfg.MaxPages; page++ {
		resp, err := retry.DoValue(ctx, c.cfg.Retry, func(ctx context.Context) (clistResponse, error) {
			return c.fetchPage(ctx, page)
		})
		if err != nil {
			return models.Snapshot{}, fmt.Errorf("snapshot page %d: %w", page, err)
		}
		if resp.Data == nil || len(resp.Data.Diff) == 0 {
			break
		}

		for _, row := range resp.Data.Diff {
			rows++
			q, ok := toQuote(row)
			if !ok {
				continue
			}
			if _, dup := seen[q.Code]; dup {
				continue
			}
			seen[q.Code] = struct{}{}
			quotes = append(quotes, q)
		}
		if rows >= resp.Data.Total {
			break
		}
	}

	if len(quotes) == 0 {
		return models.Snapshot{}, drepo.ErrEmptyResult
	}

	c.log.Debug("snapshot fetched",
		applogger.Int("rows", rows),
		applogger.Int("quotes", len(quotes)),
		applogger.Duration("duration_ms", c.now().Sub(start)),
	)
	return models.Snapshot{Quotes: quotes, FetchedAt: c.now()}, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (clistResponse, error) {
	var resp clistResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		URL: c.cfg.SnapshotURL,
		QueryParams: map[string][]string{
			"pn":     {strconv.Itoa(page)},
			"pz":     {strconv.Itoa(c.cfg.PageSize)},
			"po":     {"0"},
			"np":     {"1"},
			"fltt":   {"2"},
			"invt":   {"2"},
			"fid":    {"f12"}, // by code, stable across pages
			"fs":     {c.cfg.Market},
			"fields": {strings.Join(snapshotFields, ",")},
		},
	}, &resp)
	if err != nil {
		return resp, classify(err)
	}
	if resp.Data != nil && len(resp.Data.Diff) > 0 {
		if missing := checkRow(resp.Data.Diff[0]); len(missing) > 0 {
			return resp, retry.Permanent(&drepo.SchemaError{Endpoint: "clist", Missing: missing})
		}
	}
	return resp, nil
}

// FetchDailyBars returns up to days forward-adjusted daily bars, oldest first.
func (c *Client) FetchDailyBars(ctx context.Context, code string, days int) ([]models.Bar, error) {
	if !util.IsStockCode(code) {
		return nil, fmt.Errorf("%w: %q", drepo.ErrInvalidCode, code)
	}
	if days <= 0 {
		days = 120
	}

	resp, err := retry.DoValue(ctx, c.cfg.Retry, func(ctx context.Context) (klineResponse, error) {
		var resp klineResponse
		err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
			URL: c.cfg.KlineURL,
			QueryParams: map[string][]string{
				"secid":   {util.SecID(code)},
				"fields1": {"f1,f2,f3"},
				"fields2": {klineFields},
				"klt":     {"101"},
				"fqt":     {"1"},
				"end":     {"20500101"},
				"lmt":     {strconv.Itoa(days)},
			},
		}, &resp)
		if err != nil {
			return resp, classify(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("daily bars %s: %w", code, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("daily bars %s: %w", code, drepo.ErrNotFound)
	}

	bars := make([]models.Bar, 0, len(resp.Data.Klines))
	for _, line := range resp.Data.Klines {
		b, err := parseKline(line, c.cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("daily bars %s: %w", code, err)
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("daily bars %s: %w", code, drepo.ErrEmptyResult)
	}
	return bars, nil
}

// classify marks client errors other than 429 as permanent.
func classify(err error) error {
	var se *pkghttp.StatusError
	if errors.As(err, &se) && !se.Temporary() && se.Code >= http.StatusBadRequest {
		return retry.Permanent(err)
	}
	return err
}
