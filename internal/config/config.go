// backend-go/internal/config/config.go
package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/andresuchdata/stockcast/backend-go/internal/forecast"
	"github.com/andresuchdata/stockcast/backend-go/internal/replenishment"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
	Forecast  ForecastConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConcurrency int
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

// StorageConfig points at the S3-compatible bucket that archives sales uploads.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	ServiceName  string
}

// ForecastConfig carries the engine and replenishment tunables.
type ForecastConfig struct {
	MinHistoryDays  int
	MaxWindowDays   int
	MinHorizon      int
	MaxHorizon      int
	DefaultPeriods  int
	MaxP            int
	MaxQ            int
	Criterion       string
	ConfidenceLevel float64
	ServiceLevel    float64
	FallbackWindow  int
	FitTimeout      time.Duration
	MaxEvaluations  int
	Workers         int
	ReportWorkers   int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	engine := forecast.DefaultConfig()
	repl := replenishment.DefaultConfig()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER_MAX_UPLOAD_MB", 20)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stockcast")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONCURRENCY", 10)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "stockcast")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", false)
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("OTEL_SERVICE_NAME", "stockcast-api")
	v.SetDefault("FORECAST_MIN_HISTORY_DAYS", engine.MinHistoryDays)
	v.SetDefault("FORECAST_MAX_WINDOW_DAYS", engine.MaxWindowDays)
	v.SetDefault("FORECAST_MIN_HORIZON", engine.MinHorizon)
	v.SetDefault("FORECAST_MAX_HORIZON", engine.MaxHorizon)
	v.SetDefault("FORECAST_DEFAULT_PERIODS", 30)
	v.SetDefault("FORECAST_MAX_P", engine.MaxP)
	v.SetDefault("FORECAST_MAX_Q", engine.MaxQ)
	v.SetDefault("FORECAST_CRITERION", engine.Criterion)
	v.SetDefault("FORECAST_CONFIDENCE_LEVEL", engine.ConfidenceLevel)
	v.SetDefault("FORECAST_SERVICE_LEVEL", repl.ServiceLevel)
	v.SetDefault("FORECAST_FALLBACK_WINDOW", engine.FallbackWindow)
	v.SetDefault("FORECAST_FIT_TIMEOUT", engine.FitTimeout)
	v.SetDefault("FORECAST_MAX_EVALUATIONS", engine.MaxEvaluations)
	v.SetDefault("FORECAST_WORKERS", engine.Workers)
	v.SetDefault("FORECAST_REPORT_WORKERS", 4)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			MaxUploadMB:    v.GetInt("SERVER_MAX_UPLOAD_MB"),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetString("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			DBName:         v.GetString("DB_NAME"),
			SSLMode:        v.GetString("DB_SSLMODE"),
			MaxConcurrency: v.GetInt("DB_MAX_CONCURRENCY"),
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			RedisURL:            v.GetString("REDIS_URL"),
			RedisHost:           v.GetString("REDIS_HOST"),
			RedisPort:           v.GetString("REDIS_PORT"),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("REDIS_DB"),
			DashboardTTLSeconds: v.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Telemetry: TelemetryConfig{
			Enabled:      v.GetBool("OTEL_ENABLED"),
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
		},
		Forecast: ForecastConfig{
			MinHistoryDays:  v.GetInt("FORECAST_MIN_HISTORY_DAYS"),
			MaxWindowDays:   v.GetInt("FORECAST_MAX_WINDOW_DAYS"),
			MinHorizon:      v.GetInt("FORECAST_MIN_HORIZON"),
			MaxHorizon:      v.GetInt("FORECAST_MAX_HORIZON"),
			DefaultPeriods:  v.GetInt("FORECAST_DEFAULT_PERIODS"),
			MaxP:            v.GetInt("FORECAST_MAX_P"),
			MaxQ:            v.GetInt("FORECAST_MAX_Q"),
			Criterion:       strings.ToLower(v.GetString("FORECAST_CRITERION")),
			ConfidenceLevel: v.GetFloat64("FORECAST_CONFIDENCE_LEVEL"),
			ServiceLevel:    v.GetFloat64("FORECAST_SERVICE_LEVEL"),
			FallbackWindow:  v.GetInt("FORECAST_FALLBACK_WINDOW"),
			FitTimeout:      v.GetDuration("FORECAST_FIT_TIMEOUT"),
			MaxEvaluations:  v.GetInt("FORECAST_MAX_EVALUATIONS"),
			Workers:         v.GetInt("FORECAST_WORKERS"),
			ReportWorkers:   v.GetInt("FORECAST_REPORT_WORKERS"),
		},
	}
}

// EngineConfig maps the forecast settings onto the engine's config struct.
func (f ForecastConfig) EngineConfig() forecast.Config {
	cfg := forecast.DefaultConfig()
	cfg.MinHistoryDays = f.MinHistoryDays
	cfg.MaxWindowDays = f.MaxWindowDays
	cfg.MinHorizon = f.MinHorizon
	cfg.MaxHorizon = f.MaxHorizon
	cfg.MaxP = f.MaxP
	cfg.MaxQ = f.MaxQ
	if f.Criterion == forecast.CriterionBIC {
		cfg.Criterion = forecast.CriterionBIC
	}
	cfg.ConfidenceLevel = f.ConfidenceLevel
	cfg.FallbackWindow = f.FallbackWindow
	if f.FitTimeout > 0 {
		cfg.FitTimeout = f.FitTimeout
	}
	cfg.MaxEvaluations = f.MaxEvaluations
	cfg.Workers = f.Workers
	return cfg
}

// ReplenishmentConfig maps the service level onto the calculator's config struct.
func (f ForecastConfig) ReplenishmentConfig() replenishment.Config {
	cfg := replenishment.DefaultConfig()
	if f.ServiceLevel > 0 && f.ServiceLevel < 1 {
		cfg.ServiceLevel = f.ServiceLevel
	}
	return cfg
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + d.Port +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.DBName +
		" sslmode=" + d.SSLMode
}

// URL returns the postgres:// form used by the pgx stdlib driver.
func (d DatabaseConfig) URL() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}
