package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"StockPulse/internal/domain/models"
	drepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/services/export"
	"StockPulse/internal/services/screening"
	"StockPulse/internal/services/search"
	"StockPulse/internal/usecase"
	"StockPulse/pkg/cache"
	pkgmetrics "StockPulse/pkg/metrics"
	"StockPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

type stubProvider struct {
	bars []models.Bar
}

func (p *stubProvider) FetchSnapshot(context.Context) (models.Snapshot, error) {
	return models.Snapshot{}, drepo.ErrEmptyResult
}

func (p *stubProvider) FetchDailyBars(_ context.Context, code string, days int) ([]models.Bar, error) {
	if code == "000404" {
		return nil, drepo.ErrNotFound
	}
	b := p.bars
	if days > 0 && len(b) > days {
		b = b[len(b)-days:]
	}
	return b, nil
}

func testBars(n int) []models.Bar {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.Bar, n)
	for i := range out {
		c := 10 + 0.1*float64(i)
		out[i] = models.Bar{Date: day.AddDate(0, 0, i), Open: c, High: c + 0.1, Low: c - 0.1, Close: c, Volume: 1e6, Turnover: 2}
	}
	return out
}

func testSnapshot() models.Snapshot {
	return models.Snapshot{
		FetchedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Quotes: []models.Quote{
			{Code: "600519", Name: "贵州茅台", Price: 10, ChangePct: 5, TurnoverRate: 10, VolumeRatio: 2,
				High: 10, Low: 9.5, Open: 9.6, Volume: 1e6, Amount: 9.8e6, FloatMarketCap: 100e8, MarketCap: 110e8},
			{Code: "000002", Name: "万科A", Price: 8, ChangePct: 1, TurnoverRate: 3, VolumeRatio: 1,
				High: 8.1, Low: 7.9, Open: 8, Volume: 1e6, Amount: 8e6, FloatMarketCap: 80e8, MarketCap: 90e8},
		},
	}
}

type fixture struct {
	e     *echo.Echo
	store *usecase.SnapshotStore
	index *search.Index
}

func newFixture(t *testing.T, limiter *ratelimit.Limiter) *fixture {
	t.Helper()
	loc := util.LoadLocation("Asia/Shanghai")
	m := pkgmetrics.Nop{}
	store := usecase.NewSnapshotStore(1)
	screener := screening.New(screening.DefaultWeights(), screening.DefaultPlanParams())
	screen := usecase.NewScreenService(store, screener,
		models.FilterCriteria{MinTurnover: 8, MinChange: 2, MaxChange: 8.5, MinVolumeRatio: 1.5, ExcludeST: true, Limit: 50}, m)

	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mc.Close() })
	detail := usecase.NewDetailService(&stubProvider{bars: testBars(40)}, mc, screen, screening.DefaultPlanParams(), m, nil,
		usecase.DetailConfig{TTL: time.Minute, HistoryDays: 30, BacktestDays: 30})

	idx := search.New(nil)
	t.Cleanup(func() { _ = idx.Close() })

	e := echo.New()
	NewScreenerEchoHandler(nil, screen, detail, idx, nil, limiter, loc).RegisterRoutes(e)
	return &fixture{e: e, store: store, index: idx}
}

func (f *fixture) load() {
	snap := testSnapshot()
	f.store.Set(snap, nil)
	f.index.OnSnapshot(context.Background(), snap.Clone())
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (f *fixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("X-Real-IP", "10.0.0.1")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get(echo.HeaderContentType) == echo.MIMEApplicationJSON ||
		rec.Header().Get(echo.HeaderContentType) == echo.MIMEApplicationJSONCharsetUTF8 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec, env
}

func TestScreen_NoSnapshotIsUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	rec, _ := f.get(t, "/api/screen")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}

	rec, _ = f.get(t, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
}

func TestScreen_DefaultsAndOverrides(t *testing.T) {
	f := newFixture(t, nil)
	f.load()

	rec, env := f.get(t, "/api/screen")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var res models.ScreenResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Matched != 1 || res.Candidates[0].Code != "600519" || res.Candidates[0].Plan.Stop != 9.7 {
		t.Fatalf("default screen = %+v", res)
	}

	_, env = f.get(t, "/api/screen?min_turnover=0&min_change=0&max_change=0&min_volume_ratio=0&limit=1")
	res = models.ScreenResult{}
	_ = json.Unmarshal(env.Data, &res)
	if res.Matched != 2 || len(res.Candidates) != 1 {
		t.Fatalf("open screen = %+v", res)
	}

	rec, _ = f.get(t, "/api/screen?limit=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", rec.Code)
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t, nil)
	f.load()

	rec, _ := f.get(t, "/api/screen/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	if rec.Header().Get(echo.HeaderContentType) != export.ContentType {
		t.Fatalf("content type = %s", rec.Header().Get(echo.HeaderContentType))
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty workbook")
	}
}

func TestQuotes(t *testing.T) {
	f := newFixture(t, nil)
	f.load()

	_, env := f.get(t, "/api/snapshot/quotes?codes=000002,999999")
	var list struct {
		Rows  []models.Quote `json:"rows"`
		Total int64          `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Total != 1 || list.Rows[0].Code != "000002" {
		t.Fatalf("quotes = %+v", list)
	}

	_, env = f.get(t, "/api/snapshot")
	var st models.SnapshotStatus
	_ = json.Unmarshal(env.Data, &st)
	if st.Rows != 2 {
		t.Fatalf("status = %+v", st)
	}
}

func TestDetailAndBacktest(t *testing.T) {
	f := newFixture(t, nil)
	f.load()

	rec, env := f.get(t, "/api/stocks/600519/detail")
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d body=%s", rec.Code, rec.Body)
	}
	var v struct {
		Code string     `json:"code"`
		Name string     `json:"name"`
		MA20 []*float64 `json:"ma20"`
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Name != "贵州茅台" || len(v.MA20) != 30 || v.MA20[0] != nil || v.MA20[29] == nil {
		t.Fatalf("detail = %+v", v)
	}

	if rec, _ := f.get(t, "/api/stocks/abc/detail"); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid code status = %d", rec.Code)
	}
	if rec, _ := f.get(t, "/api/stocks/000404/detail"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown code status = %d", rec.Code)
	}
	if rec, _ := f.get(t, "/api/stocks/600519/detail?days=10"); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("short history status = %d", rec.Code)
	}
	if rec, _ := f.get(t, "/api/stocks/600519/backtest"); rec.Code != http.StatusOK {
		t.Fatalf("backtest status = %d body=%s", rec.Code, rec.Body)
	}
	if rec, _ := f.get(t, "/api/stocks/600519/snapshots"); rec.Code != http.StatusNotFound {
		t.Fatalf("archive disabled status = %d", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t, nil)
	f.load()

	_, env := f.get(t, "/api/search?q=gzmt")
	var list struct {
		Rows []models.SearchHit `json:"rows"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Rows) == 0 || list.Rows[0].Code != "600519" {
		t.Fatalf("hits = %+v", list.Rows)
	}

	if rec, _ := f.get(t, "/api/search"); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing q status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, ratelimit.New(1, 0.001))
	f.load()

	if rec, _ := f.get(t, "/api/snapshot"); rec.Code != http.StatusOK {
		t.Fatalf("first = %d", rec.Code)
	}
	if rec, _ := f.get(t, "/api/snapshot"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d", rec.Code)
	}
	if rec, _ := f.get(t, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz should not be limited, got %d", rec.Code)
	}
}
