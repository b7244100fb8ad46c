package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Telemetry  TelemetryConfig
	Storage    StorageConfig
	Copper     CopperConfig
	JustCall   JustCallConfig
	Batch      BatchConfig
	Commission CommissionConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. An empty Host disables Redis
// and the in-memory cache and run guard are used instead.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	MatchTTL time.Duration
	GuardTTL time.Duration
}

// Enabled reports whether a Redis host is configured
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	RateLimit        float64 // batch requests per second per client
	RateBurst        int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // OTEL Collector gRPC endpoint
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	LogsEnabled       bool   // bridge zap entries to the collector
	ProfilerEnabled   bool   // continuous profiling with Pyroscope
	ProfilerAddress   string // e.g. http://pyroscope:4040
}

// StorageConfig holds the S3 settings used to archive import reports.
// An empty Bucket disables archiving.
type StorageConfig struct {
	Bucket         string
	Region         string
	Endpoint       string // custom endpoint for MinIO and friends
	AccessKey      string
	SecretKey      string
	Prefix         string
	ForcePathStyle bool
}

// Enabled reports whether report archiving is configured
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// CopperConfig holds CRM API credentials
type CopperConfig struct {
	BaseURL     string
	AccessToken string
	UserEmail   string
	PageSize    int
	MaxPages    int
	RateLimit   float64 // requests per second
	Timeout     time.Duration
}

// JustCallConfig holds telephony API credentials
type JustCallConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
	PageSize  int
	MaxPages  int
	RateLimit float64
	Timeout   time.Duration
}

// BatchConfig bounds every batch run
type BatchConfig struct {
	Budget    time.Duration // wall-clock budget per run
	ChunkSize int           // rows per write transaction
	Workers   int           // parallel customer aggregations
}

// CommissionConfig seeds the engine and monthly calculator snapshots
type CommissionConfig struct {
	MaxBonus            decimal.Decimal
	Threshold           decimal.Decimal
	Cap                 decimal.Decimal
	ExcludeShipping     bool
	ExcludeCCProcessing bool
	ApplyReorgRule      bool
	ReorgDate           time.Time
	Timezone            string
}

// Location resolves Timezone, falling back to UTC
func (c CommissionConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with KANVA_ prefix (e.g., KANVA_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("KANVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// booleans that default to true must be registered so an explicit false survives
	v.SetDefault("commission.exclude_shipping", true)
	v.SetDefault("commission.exclude_cc_processing", true)
	v.SetDefault("commission.apply_reorg_rule", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			MatchTTL: v.GetDuration("redis.match_ttl"),
			GuardTTL: v.GetDuration("redis.guard_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			RateLimit:        v.GetFloat64("http.rate_limit"),
			RateBurst:        v.GetInt("http.rate_burst"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			ProfilerEnabled:   v.GetBool("telemetry.profiler_enabled"),
			ProfilerAddress:   v.GetString("telemetry.profiler_address"),
		},
		Storage: StorageConfig{
			Bucket:         v.GetString("storage.bucket"),
			Region:         v.GetString("storage.region"),
			Endpoint:       v.GetString("storage.endpoint"),
			AccessKey:      v.GetString("storage.access_key"),
			SecretKey:      v.GetString("storage.secret_key"),
			Prefix:         v.GetString("storage.prefix"),
			ForcePathStyle: v.GetBool("storage.force_path_style"),
		},
		Copper: CopperConfig{
			BaseURL:     v.GetString("copper.base_url"),
			AccessToken: v.GetString("copper.access_token"),
			UserEmail:   v.GetString("copper.user_email"),
			PageSize:    v.GetInt("copper.page_size"),
			MaxPages:    v.GetInt("copper.max_pages"),
			RateLimit:   v.GetFloat64("copper.rate_limit"),
			Timeout:     v.GetDuration("copper.timeout"),
		},
		JustCall: JustCallConfig{
			BaseURL:   v.GetString("justcall.base_url"),
			APIKey:    v.GetString("justcall.api_key"),
			APISecret: v.GetString("justcall.api_secret"),
			PageSize:  v.GetInt("justcall.page_size"),
			MaxPages:  v.GetInt("justcall.max_pages"),
			RateLimit: v.GetFloat64("justcall.rate_limit"),
			Timeout:   v.GetDuration("justcall.timeout"),
		},
		Batch: BatchConfig{
			Budget:    v.GetDuration("batch.budget"),
			ChunkSize: v.GetInt("batch.chunk_size"),
			Workers:   v.GetInt("batch.workers"),
		},
		Commission: CommissionConfig{
			ExcludeShipping:     v.GetBool("commission.exclude_shipping"),
			ExcludeCCProcessing: v.GetBool("commission.exclude_cc_processing"),
			ApplyReorgRule:      v.GetBool("commission.apply_reorg_rule"),
			Timezone:            v.GetString("commission.timezone"),
		},
	}

	var err error
	if cfg.Commission.MaxBonus, err = parseDecimal(v, "commission.max_bonus"); err != nil {
		return nil, err
	}
	if cfg.Commission.Threshold, err = parseDecimal(v, "commission.threshold"); err != nil {
		return nil, err
	}
	if cfg.Commission.Cap, err = parseDecimal(v, "commission.cap"); err != nil {
		return nil, err
	}
	if raw := v.GetString("commission.reorg_date"); raw != "" {
		cfg.Commission.ReorgDate, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("commission.reorg_date must be YYYY-MM-DD: %w", err)
		}
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDecimal(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	return d, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "kanva-portal"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "kanva"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.MatchTTL == 0 {
		cfg.Redis.MatchTTL = 24 * time.Hour
	}
	if cfg.Redis.GuardTTL == 0 {
		cfg.Redis.GuardTTL = 10 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// batch endpoints run for up to the batch budget
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 6 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 50 << 20
	}
	if cfg.HTTP.RateLimit == 0 {
		cfg.HTTP.RateLimit = 0.5
	}
	if cfg.HTTP.RateBurst == 0 {
		cfg.HTTP.RateBurst = 5
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "kanva-portal"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "import-reports"
	}
	if cfg.Copper.BaseURL == "" {
		cfg.Copper.BaseURL = "https://api.copper.com/developer_api/v1"
	}
	if cfg.Copper.PageSize == 0 {
		cfg.Copper.PageSize = 200
	}
	if cfg.Copper.MaxPages == 0 {
		cfg.Copper.MaxPages = 50
	}
	if cfg.Copper.RateLimit == 0 {
		cfg.Copper.RateLimit = 3
	}
	if cfg.Copper.Timeout == 0 {
		cfg.Copper.Timeout = 30 * time.Second
	}
	if cfg.JustCall.BaseURL == "" {
		cfg.JustCall.BaseURL = "https://api.justcall.io/v2.1"
	}
	if cfg.JustCall.PageSize == 0 {
		cfg.JustCall.PageSize = 100
	}
	if cfg.JustCall.MaxPages == 0 {
		cfg.JustCall.MaxPages = 100
	}
	if cfg.JustCall.RateLimit == 0 {
		cfg.JustCall.RateLimit = 2
	}
	if cfg.JustCall.Timeout == 0 {
		cfg.JustCall.Timeout = 30 * time.Second
	}
	if cfg.Batch.Budget == 0 {
		cfg.Batch.Budget = 5 * time.Minute
	}
	if cfg.Batch.ChunkSize == 0 {
		cfg.Batch.ChunkSize = 450
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 8
	}
	if cfg.Commission.MaxBonus.IsZero() {
		cfg.Commission.MaxBonus = decimal.NewFromInt(25000)
	}
	if cfg.Commission.Threshold.IsZero() {
		cfg.Commission.Threshold = decimal.RequireFromString("0.75")
	}
	if cfg.Commission.Cap.IsZero() {
		cfg.Commission.Cap = decimal.RequireFromString("1.25")
	}
	if cfg.Commission.ReorgDate.IsZero() {
		cfg.Commission.ReorgDate = time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Batch.ChunkSize < 1 || c.Batch.ChunkSize > 450 {
		return fmt.Errorf("batch.chunk_size must be between 1 and 450, got %d", c.Batch.ChunkSize)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive")
	}
	if c.Batch.Budget < 0 {
		return fmt.Errorf("batch.budget cannot be negative")
	}

	if c.Commission.MaxBonus.IsNegative() {
		return fmt.Errorf("commission.max_bonus cannot be negative")
	}
	if c.Commission.Threshold.IsNegative() || c.Commission.Threshold.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("commission.threshold must be between 0 and 1, got %s", c.Commission.Threshold)
	}
	if c.Commission.Cap.LessThan(c.Commission.Threshold) {
		return fmt.Errorf("commission.cap (%s) cannot be below commission.threshold (%s)",
			c.Commission.Cap, c.Commission.Threshold)
	}
	if c.Commission.Timezone != "" {
		if _, err := time.LoadLocation(c.Commission.Timezone); err != nil {
			return fmt.Errorf("commission.timezone: %w", err)
		}
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.ProfilerEnabled && c.Telemetry.ProfilerAddress == "" {
		return fmt.Errorf("telemetry.profiler_address is required when profiling is enabled")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
