package di

import (
	"context"
	"fmt"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/handler/api"
	"StockPulse/internal/handler/ws"
	internalrepo "StockPulse/internal/repository"
	"StockPulse/internal/service/eastmoney"
	"StockPulse/internal/service/ratelimit"
	"StockPulse/internal/services/screening"
	"StockPulse/internal/services/search"
	"StockPulse/internal/usecase"
	"StockPulse/pkg/cache"
	pkgch "StockPulse/pkg/clickhouse"
	"StockPulse/pkg/config"
	xhttp "StockPulse/pkg/http"
	pkgkafka "StockPulse/pkg/kafka"
	applogger "StockPulse/pkg/logger"
	"StockPulse/pkg/metrics"
	"StockPulse/pkg/retry"
	"StockPulse/pkg/server"
	"StockPulse/pkg/util"

	"github.com/prometheus/client_golang/prometheus"
)

// Resources collects everything that must be closed on shutdown.
type Resources struct {
	closers []server.Closer
}

func (r *Resources) add(name string, fn func() error) {
	r.closers = append(r.closers, server.Closer{Name: name, Close: fn})
}

// ProvideResources starts an empty closer list.
func ProvideResources() *Resources { return &Resources{} }

// ProvideKafkaProducer creates the shared Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, res *Resources) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopics(cfg.Kafka.AutoCreateTopics),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	res.add("kafka producer", producer.Close)
	return producer, nil
}

// ProvideLogger builds the root logger. The error collector is attached
// before any child logger is derived so every component shares it.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer, res *Resources) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.CollectTopic != "" && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			Service:        "stockpulse",
			TimeInterval:   cfg.Logging.CollectInterval,
			CountThreshold: cfg.Logging.CollectThreshold,
			Topic:          cfg.Logging.CollectTopic,
			Publisher:      producer,
		})
		res.add("log collector", func() error { l.RemoveCollector(); return nil })
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideLocation resolves the exchange time zone.
func ProvideLocation(cfg *config.Config) *time.Location {
	return util.LoadLocation(cfg.Refresh.Timezone)
}

// ProvideCache picks the layered Redis cache when Redis is enabled and an
// in-process cache otherwise.
func ProvideCache(cfg *config.Config, res *Resources) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Detail.CacheSize))
		res.add("memory cache", mc.Close)
		return mc, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPoolSize(cfg.Redis.PoolSize),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	lc := cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Detail.CacheSize))
	res.add("redis cache", lc.Close)
	return lc, nil
}

// ProvideMarketProvider creates the eastmoney client.
func ProvideMarketProvider(cfg *config.Config, l *applogger.Logger, loc *time.Location) repository.MarketProvider {
	p := cfg.Provider
	httpClient := xhttp.NewClient(
		xhttp.WithTimeout(p.Timeout),
		xhttp.WithHeader("User-Agent", p.UserAgent),
		xhttp.WithHeader("Referer", "https://quote.eastmoney.com/"),
	)
	return eastmoney.New(eastmoney.Config{
		SnapshotURL: p.SnapshotURL,
		KlineURL:    p.KlineURL,
		Market:      p.Market,
		PageSize:    p.PageSize,
		MaxPages:    p.MaxPages,
		Retry:       retry.Policy{Attempts: p.Retry.Attempts, BaseDelay: p.Retry.BaseDelay},
		Location:    loc,
	}, httpClient, l)
}

// ProvideDefaultCriteria maps the configured screen defaults.
func ProvideDefaultCriteria(cfg *config.Config) models.FilterCriteria {
	d := cfg.Screener.Defaults
	return models.FilterCriteria{
		MinFloatCap:    d.MinFloatCap,
		MaxFloatCap:    d.MaxFloatCap,
		MinTurnover:    d.MinTurnover,
		MinChange:      d.MinChange,
		MaxChange:      d.MaxChange,
		MinVolumeRatio: d.MinVolumeRatio,
		ExcludeST:      d.ExcludeST,
		Limit:          d.Limit,
	}
}

func ProvidePlanParams(cfg *config.Config) screening.PlanParams {
	p := cfg.Screener.Plan
	return screening.PlanParams{
		TargetPct:         p.TargetPct,
		TakeProfitPct:     p.TakeProfitPct,
		StopPct:           p.StopPct,
		MaxPositions:      p.MaxPositions,
		SinglePositionMax: p.SinglePositionMax,
	}
}

func ProvideWeights(cfg *config.Config) screening.Weights {
	w := cfg.Screener.Weights
	return screening.Weights{
		TurnoverMin:     w.TurnoverMin,
		TurnoverMax:     w.TurnoverMax,
		Turnover:        w.Turnover,
		VolumeRatioMin:  w.VolumeRatioMin,
		VolumeRatioHigh: w.VolumeRatioHigh,
		VolumeRatio:     w.VolumeRatio,
		StrongShape:     w.StrongShape,
		AboveVWAP:       w.AboveVWAP,
		NeutralShape:    w.NeutralShape,
		BelowVWAP:       w.BelowVWAP,
		UpperShadow:     w.UpperShadow,
		ChangeMin:       w.ChangeMin,
		ChangeMax:       w.ChangeMax,
		Change:          w.Change,
		FloatCapMin:     w.FloatCapMin,
		FloatCapMax:     w.FloatCapMax,
		FloatCap:        w.FloatCap,
		FloatRatioMin:   w.FloatRatioMin,
		FloatRatio:      w.FloatRatio,
	}
}

func ProvideScreener(w screening.Weights, p screening.PlanParams) *screening.Screener {
	return screening.New(w, p)
}

func ProvideSnapshotStore(cfg *config.Config) *usecase.SnapshotStore {
	return usecase.NewSnapshotStore(cfg.Refresh.ErrorThreshold)
}

func ProvideScreenService(store *usecase.SnapshotStore, s *screening.Screener, c models.FilterCriteria, m repository.Metrics) *usecase.ScreenService {
	return usecase.NewScreenService(store, s, c, m)
}

func ProvideDetailService(
	provider repository.MarketProvider,
	c cache.Service,
	screen *usecase.ScreenService,
	plan screening.PlanParams,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.DetailService {
	return usecase.NewDetailService(provider, c, screen, plan, m, l, usecase.DetailConfig{
		TTL:          cfg.Detail.TTL,
		HistoryDays:  cfg.Detail.HistoryDays,
		BacktestDays: cfg.Detail.BacktestDays,
		FetchTimeout: cfg.Detail.FetchTimeout,
	})
}

// ProvideSearchIndex creates the quick-search index.
func ProvideSearchIndex(l *applogger.Logger, res *Resources) *search.Index {
	idx := search.New(l)
	res.add("search index", idx.Close)
	return idx
}

// ProvideSignalPublisher publishes to Kafka when enabled and to the log otherwise.
func ProvideSignalPublisher(cfg *config.Config, producer *pkgkafka.Producer, l *applogger.Logger) repository.SignalPublisher {
	if producer == nil {
		return internalrepo.NewLogSignalPublisher(l)
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalTopic)
}

func ProvideSignalNotifier(
	cfg *config.Config,
	s *screening.Screener,
	c models.FilterCriteria,
	pub repository.SignalPublisher,
	shared cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
	loc *time.Location,
	res *Resources,
) *usecase.SignalNotifier {
	return usecase.NewSignalNotifier(s, c, cfg.Screener.AlertScore, pub, signalLocks(cfg, shared, res), m, l, loc)
}

// signalLocks keeps dedupe locks out of the size-bounded detail cache.
// With Redis the shared layered cache already locks in Redis.
func signalLocks(cfg *config.Config, shared cache.Service, res *Resources) cache.Service {
	if cfg.Redis.Enabled {
		return shared
	}
	mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(0), cache.WithMemoryCleanup(time.Hour))
	res.add("signal locks", mc.Close)
	return mc
}

// ProvideSnapshotHistory connects the ClickHouse archive, or returns nil
// when the archive is disabled.
func ProvideSnapshotHistory(cfg *config.Config, m repository.Metrics, l *applogger.Logger, res *Resources) (*usecase.SnapshotHistory, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ch := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{"CREATE DATABASE IF NOT EXISTS " + ch.Database}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	archive := internalrepo.NewClickHouseSnapshotArchive(client.DB(), ch.Database+"."+ch.Table, client.Close)
	if err := archive.Init(ctx); err != nil {
		_ = archive.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	res.add("clickhouse", archive.Close)
	return usecase.NewSnapshotHistory(archive, m, l), nil
}

// ProvideHub creates the websocket hub fed by the store's status.
func ProvideHub(cfg *config.Config, store *usecase.SnapshotStore, l *applogger.Logger, res *Resources) *ws.Hub {
	hub := ws.NewHub(store.Status, cfg.Server.WSBuffer, l)
	res.add("websocket hub", hub.Close)
	return hub
}

// ProvideRefresher builds the refresh loop and registers every listener.
func ProvideRefresher(
	cfg *config.Config,
	provider repository.MarketProvider,
	store *usecase.SnapshotStore,
	m repository.Metrics,
	l *applogger.Logger,
	loc *time.Location,
	index *search.Index,
	hub *ws.Hub,
	notifier *usecase.SignalNotifier,
	history *usecase.SnapshotHistory,
) *usecase.Refresher {
	r := usecase.NewRefresher(provider, store, m, l, usecase.RefresherConfig{
		Interval:        cfg.Refresh.Interval,
		MarketHoursOnly: cfg.Refresh.MarketHoursOnly,
		Location:        loc,
	}, index, hub, notifier)
	if history != nil {
		r.AddListener(history)
	}
	return r
}

// ProvideLimiter returns nil when rate limiting is disabled.
func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	rl := cfg.Server.RateLimit
	if !rl.Enabled {
		return nil
	}
	return ratelimit.New(rl.Capacity, rl.RefillPerSec)
}

func ProvideAPIHandler(
	l *applogger.Logger,
	screen *usecase.ScreenService,
	detail *usecase.DetailService,
	index *search.Index,
	history *usecase.SnapshotHistory,
	limiter *ratelimit.Limiter,
	loc *time.Location,
) *api.ScreenerEchoHandler {
	return api.NewScreenerEchoHandler(l, screen, detail, index, history, limiter, loc)
}

// ProvideHTTPServer mounts the API and websocket routes.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ScreenerEchoHandler, hub *ws.Hub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(xhttp.Handlers{h, hub},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithTrustedProxies(cfg.Server.TrustedProxies),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	refresher *usecase.Refresher,
	srv *xhttp.Server,
	limiter *ratelimit.Limiter,
	res *Resources,
) *server.App {
	return server.New(cfg, l, refresher, srv, limiter, res.closers...)
}
