package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required,oneof=development staging production test"`
	Server      ServerConfig     `yaml:"server"`
	Logging     LoggingConfig    `yaml:"logging"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Provider    ProviderConfig   `yaml:"provider"`
	Refresh     RefreshConfig    `yaml:"refresh"`
	Screener    ScreenerConfig   `yaml:"screener"`
	Detail      DetailConfig     `yaml:"detail"`
	Redis       RedisConfig      `yaml:"redis"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" default:"500ms"`
	CORS            bool          `yaml:"cors" default:"true"`
	WSBuffer        int           `yaml:"ws_buffer" default:"16" validate:"gte=1"`
	TrustedProxies  []string      `yaml:"trusted_proxies"`
	RateLimit       struct {
		Enabled      bool    `yaml:"enabled" default:"true"`
		Capacity     float64 `yaml:"capacity" default:"30" validate:"gte=1"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"10" validate:"gt=0"`
	} `yaml:"rate_limit"`
}

type LoggingConfig struct {
	Level            string        `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format           string        `yaml:"format" default:"console" validate:"oneof=json console"`
	Output           string        `yaml:"output" default:"stdout"`
	CollectTopic     string        `yaml:"collect_topic"`
	CollectInterval  time.Duration `yaml:"collect_interval" default:"30s"`
	CollectThreshold int           `yaml:"collect_threshold" default:"100" validate:"gte=1"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type RetryConfig struct {
	Attempts  int           `yaml:"attempts" default:"3" validate:"gte=1,lte=10"`
	BaseDelay time.Duration `yaml:"base_delay" default:"1s"`
}

type ProviderConfig struct {
	SnapshotURL string        `yaml:"snapshot_url" default:"https://push2.eastmoney.com/api/qt/clist/get" validate:"url"`
	KlineURL    string        `yaml:"kline_url" default:"https://push2his.eastmoney.com/api/qt/stock/kline/get" validate:"url"`
	Market      string        `yaml:"market" default:"m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23,m:0+t:81+s:2048"`
	PageSize    int           `yaml:"page_size" default:"100" validate:"gte=10,lte=5000"`
	MaxPages    int           `yaml:"max_pages" default:"100" validate:"gte=1"`
	Timeout     time.Duration `yaml:"timeout" default:"10s"`
	UserAgent   string        `yaml:"user_agent" default:"Mozilla/5.0 (X11; Linux x86_64) StockPulse/1.0"`
	Retry       RetryConfig   `yaml:"retry"`
}

type RefreshConfig struct {
	Interval        time.Duration `yaml:"interval" default:"60s"`
	ErrorThreshold  int           `yaml:"error_threshold" default:"3" validate:"gte=1"`
	MarketHoursOnly bool          `yaml:"market_hours_only"`
	Timezone        string        `yaml:"timezone" default:"Asia/Shanghai"`
}

type CriteriaConfig struct {
	MinFloatCap    float64 `yaml:"min_float_cap" default:"50"`
	MaxFloatCap    float64 `yaml:"max_float_cap" default:"200"`
	MinTurnover    float64 `yaml:"min_turnover" default:"8"`
	MinChange      float64 `yaml:"min_change" default:"2"`
	MaxChange      float64 `yaml:"max_change" default:"8.5"`
	MinVolumeRatio float64 `yaml:"min_volume_ratio" default:"1.5"`
	ExcludeST      bool    `yaml:"exclude_st" default:"true"`
	Limit          int     `yaml:"limit" default:"50" validate:"gte=1"`
}

type PlanConfig struct {
	TargetPct         float64 `yaml:"target_pct" default:"0.08" validate:"gt=0,lt=1"`
	TakeProfitPct     float64 `yaml:"take_profit_pct" default:"0.05" validate:"gt=0,lt=1"`
	StopPct           float64 `yaml:"stop_pct" default:"0.03" validate:"gt=0,lt=1"`
	MaxPositions      int     `yaml:"max_positions" default:"3" validate:"gte=1"`
	SinglePositionMax float64 `yaml:"single_position_max" default:"0.5" validate:"gt=0,lte=1"`
}

// WeightsConfig drives the heuristic score. Bands are inclusive.
type WeightsConfig struct {
	TurnoverMin     float64 `yaml:"turnover_min" default:"8"`
	TurnoverMax     float64 `yaml:"turnover_max" default:"15"`
	Turnover        float64 `yaml:"turnover" default:"20"`
	VolumeRatioMin  float64 `yaml:"volume_ratio_min" default:"1.5"`
	VolumeRatioHigh float64 `yaml:"volume_ratio_high" default:"3"`
	VolumeRatio     float64 `yaml:"volume_ratio" default:"20"`
	StrongShape     float64 `yaml:"strong_shape" default:"25"`
	AboveVWAP       float64 `yaml:"above_vwap" default:"15"`
	NeutralShape    float64 `yaml:"neutral_shape" default:"5"`
	BelowVWAP       float64 `yaml:"below_vwap" default:"0"`
	UpperShadow     float64 `yaml:"upper_shadow" default:"-10"`
	ChangeMin       float64 `yaml:"change_min" default:"3"`
	ChangeMax       float64 `yaml:"change_max" default:"7"`
	Change          float64 `yaml:"change" default:"15"`
	FloatCapMin     float64 `yaml:"float_cap_min" default:"50"`
	FloatCapMax     float64 `yaml:"float_cap_max" default:"200"`
	FloatCap        float64 `yaml:"float_cap" default:"10"`
	FloatRatioMin   float64 `yaml:"float_ratio_min" default:"0.8"`
	FloatRatio      float64 `yaml:"float_ratio" default:"10"`
}

type ScreenerConfig struct {
	Defaults   CriteriaConfig `yaml:"defaults"`
	Plan       PlanConfig     `yaml:"plan"`
	Weights    WeightsConfig  `yaml:"weights"`
	AlertScore float64        `yaml:"alert_score" default:"70" validate:"gte=0,lte=99"`
}

type DetailConfig struct {
	TTL          time.Duration `yaml:"ttl" default:"5m"`
	HistoryDays  int           `yaml:"history_days" default:"120" validate:"gte=30,lte=500"`
	BacktestDays int           `yaml:"backtest_days" default:"60" validate:"gte=10,lte=500"`
	CacheSize    int           `yaml:"cache_size" default:"500" validate:"gte=1"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" default:"30s"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size" default:"10"`
	Prefix   string `yaml:"prefix" default:"stockpulse"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"stockpulse"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert" default:"true"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	Table            string        `yaml:"table" default:"quote_snapshots"`
}

type KafkaConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Brokers          []string `yaml:"brokers"`
	SignalTopic      string   `yaml:"signal_topic" default:"stockpulse.signals"`
	RequiredAcks     int      `yaml:"required_acks" default:"-1"`
	Compression      string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	AutoCreateTopics bool     `yaml:"auto_create_topics"`
	Producer         struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"1s"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
}

var validate = validator.New()

// Default returns a configuration populated from struct tags only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return &c, nil
}

func parse(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("STOCKPULSE_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("REFRESH_INTERVAL: %w", err)
		}
		c.Refresh.Interval = d
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR port: %w", err)
		}
		c.Redis.Host, c.Redis.Port, c.Redis.Enabled = host, p, true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("KAFKA_SIGNAL_TOPIC"); v != "" {
		c.Kafka.SignalTopic = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Refresh.Interval < time.Second {
		return fmt.Errorf("refresh.interval must be at least 1s, got %s", c.Refresh.Interval)
	}
	d := c.Screener.Defaults
	if d.MaxFloatCap > 0 && d.MinFloatCap > d.MaxFloatCap {
		return errors.New("screener.defaults.min_float_cap exceeds max_float_cap")
	}
	if d.MaxChange != 0 && d.MinChange > d.MaxChange {
		return errors.New("screener.defaults.min_change exceeds max_change")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Logging.CollectTopic != "" && !c.Kafka.Enabled {
		return errors.New("logging.collect_topic requires kafka")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return errors.New("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
