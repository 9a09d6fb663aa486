package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `env:", prefix=SERVER_"`
	Redis      RedisConfig      `env:", prefix=REDIS_"`
	NATS       NATSConfig       `env:", prefix=NATS_"`
	Exchange   ExchangeConfig   `env:", prefix=EXCHANGE_"`
	Engine     EngineConfig     `env:", prefix=ENGINE_"`
	Structure  StructureConfig  `env:", prefix=STRUCTURE_"`
	Scoring    ScoringConfig    `env:", prefix=SCORING_"`
	Security   SecurityConfig   `env:", prefix=SECURITY_"`
	WebSocket  WebSocketConfig  `env:", prefix=WEBSOCKET_"`
	Logging    LoggingConfig    `env:", prefix=LOG_"`
	Monitoring MonitoringConfig `env:", prefix=MONITORING_"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `env:"HOST, default=0.0.0.0"`
	Port         int           `env:"PORT, default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=120s"`
}

// RedisConfig holds Redis configuration for the continuity store
type RedisConfig struct {
	Enabled      bool          `env:"ENABLED, default=false"`
	Host         string        `env:"HOST, default=localhost"`
	Port         int           `env:"PORT, default=6379"`
	Password     string        `env:"PASSWORD"`
	DB           int           `env:"DB, default=0"`
	PoolSize     int           `env:"POOL_SIZE, default=10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS, default=5"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT, default=5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=3s"`
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	Enabled       bool          `env:"ENABLED, default=false"`
	URL           string        `env:"URL, default=nats://localhost:4222"`
	MaxReconnect  int           `env:"MAX_RECONNECT, default=10"`
	ReconnectWait time.Duration `env:"RECONNECT_WAIT, default=2s"`
	DrainTimeout  time.Duration `env:"DRAIN_TIMEOUT, default=30s"`
}

// ExchangeConfig holds market-data exchange configuration
type ExchangeConfig struct {
	APIURL         string        `env:"BINANCE_API_URL, default=https://api.binance.com"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, default=30s"`
	RateLimit      time.Duration `env:"RATE_LIMIT, default=100ms"`
	StreamEnabled  bool          `env:"STREAM_ENABLED, default=true"`
	PriceStaleTTL  time.Duration `env:"PRICE_STALE_TTL, default=30s"`
}

// EngineConfig holds signal engine configuration
type EngineConfig struct {
	Symbols         []string      `env:"SYMBOLS, default=BTCUSDT,ETHUSDT,BNBUSDT,SOLUSDT,XRPUSDT"`
	Timeframe       string        `env:"TIMEFRAME, default=15m"`
	Strategy        string        `env:"STRATEGY, default=classic"`
	LookbackBars    int           `env:"LOOKBACK_BARS, default=300"`
	MaxConcurrency  int           `env:"MAX_CONCURRENCY, default=8"`
	PollInterval    time.Duration `env:"POLL_INTERVAL, default=15s"`
	MinConfidence   int           `env:"MIN_CONFIDENCE, default=35"`
	ContinuityTTL   time.Duration `env:"CONTINUITY_TTL, default=24h"`
	InstrumentScale int32         `env:"INSTRUMENT_SCALE, default=4"`
}

// StructureConfig holds market-structure analyzer configuration
type StructureConfig struct {
	SwingNeighbors      int     `env:"SWING_NEIGHBORS, default=3"`
	LookbackBars        int     `env:"LOOKBACK_BARS, default=120"`
	ClusterTolerancePct float64 `env:"CLUSTER_TOLERANCE_PCT, default=0.3"`
	SweepTickPct        float64 `env:"SWEEP_TICK_PCT, default=0.01"`
	DisplacementFactor  float64 `env:"DISPLACEMENT_FACTOR, default=1.5"`
	ExhaustionWickRatio float64 `env:"EXHAUSTION_WICK_RATIO, default=2.0"`
	AsianSessionStart   int     `env:"ASIAN_SESSION_START, default=0"`
	AsianSessionEnd     int     `env:"ASIAN_SESSION_END, default=6"`
	KillZones           string  `env:"KILL_ZONES, default=london=07:00-10:00;newyork=12:00-15:00"`
}

// ScoringConfig holds signal scorer thresholds
type ScoringConfig struct {
	MinScore              int     `env:"MIN_SCORE, default=30"`
	MinMargin             int     `env:"MIN_MARGIN, default=10"`
	LiquidityTolerancePct float64 `env:"LIQUIDITY_TOLERANCE_PCT, default=0.5"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	CORSEnabled bool     `env:"CORS_ENABLED, default=true"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`
	CORSMethods []string `env:"CORS_METHODS, default=GET,POST,OPTIONS"`
	CORSHeaders []string `env:"CORS_HEADERS, default=*"`
}

// WebSocketConfig holds WebSocket push configuration
type WebSocketConfig struct {
	Enabled         bool          `env:"ENABLED, default=true"`
	ReadBufferSize  int           `env:"READ_BUFFER_SIZE, default=1024"`
	WriteBufferSize int           `env:"WRITE_BUFFER_SIZE, default=1024"`
	PingInterval    time.Duration `env:"PING_INTERVAL, default=30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT, default=10s"`
	MaxClients      int           `env:"MAX_CLIENTS, default=1000"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `env:"LEVEL, default=info"`
	Format string `env:"FORMAT, default=json"`
	Output string `env:"OUTPUT, default=stdout"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	MetricsEnabled     bool `env:"METRICS_ENABLED, default=true"`
	HealthCheckEnabled bool `env:"HEALTH_CHECK_ENABLED, default=true"`
}

// Load loads configuration from environment variables using go-envconfig
func Load() (*Config, error) {
	ctx := context.Background()
	var cfg Config

	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if len(c.Engine.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}

	switch strings.ToLower(c.Engine.Strategy) {
	case "classic", "smc", "ict":
	default:
		return fmt.Errorf("unknown strategy variant: %s", c.Engine.Strategy)
	}

	if !validTimeframe(c.Engine.Timeframe) {
		return fmt.Errorf("unsupported timeframe: %s", c.Engine.Timeframe)
	}

	if c.Engine.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive")
	}

	if c.Engine.MinConfidence < 0 || c.Engine.MinConfidence > 100 {
		return fmt.Errorf("min confidence must be in [0,100]: %d", c.Engine.MinConfidence)
	}

	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("Redis host is required when Redis is enabled")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("NATS URL is required when NATS is enabled")
	}

	return nil
}

// validTimeframe reports whether the timeframe is a supported kline interval
func validTimeframe(tf string) bool {
	switch tf {
	case "1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d":
		return true
	}
	return false
}

// GetRedisAddr returns Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// GetServerAddr returns server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// NormalizedStrategy maps aliases onto canonical strategy names
func (c *Config) NormalizedStrategy() string {
	s := strings.ToLower(c.Engine.Strategy)
	if s == "ict" {
		return "smc"
	}
	return s
}
