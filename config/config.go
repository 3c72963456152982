package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/guttosm/b3cotahist/internal/logger"
)

// Config holds the full application configuration loaded from environment
// variables or a .env file.
//
// Example ENV:
//
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=b3_scraper
//	DATA_DIR=files/stocks
//	INGEST_BATCH_SIZE=1000
//	PARQUET_COMPRESSION=snappy
//	S3_BUCKET=quotes-archive
type Config struct {
	Server    ServerConfig    // HTTP server configuration
	Postgres  PostgresConfig  // PostgreSQL connection settings
	Ingest    IngestConfig    // pipeline settings
	Fetch     FetchConfig     // archive download settings
	S3        S3Config        // optional artifact mirror
	RateLimit RateLimitConfig // API rate limiting
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // TCP port the HTTP server listens on (e.g., "8080")
	RequestTimeout time.Duration // per-request context deadline
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host, Port, User, Password, DBName, SSLMode: connection parts.
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// IngestConfig drives decode, compress and load.
//
// Fields:
//   - DataDir: root of zip/, extracted/ and compressed/.
//   - BatchSize: rows per COPY transaction.
//   - BatchTimeout: deadline of each batch transaction; zero disables it.
//   - Parallel: files decoded concurrently; zero picks min(7, NumCPU).
//   - Track: record a load_log watermark per batch.
//   - Compression: parquet codec (snappy, gzip, zstd, none).
type IngestConfig struct {
	DataDir      string
	BatchSize    int
	BatchTimeout time.Duration
	Parallel     int
	Track        bool
	Compression  string
}

// ZipDir holds downloaded archives.
func (c IngestConfig) ZipDir() string { return filepath.Join(c.DataDir, "zip") }

// ExtractedDir holds extracted COTAHIST text files.
func (c IngestConfig) ExtractedDir() string { return filepath.Join(c.DataDir, "extracted") }

// CompressedDir holds parquet artifacts.
func (c IngestConfig) CompressedDir() string { return filepath.Join(c.DataDir, "compressed") }

// FetchConfig configures the archive client.
type FetchConfig struct {
	BaseURL string
	Timeout time.Duration
}

// S3Config configures the optional artifact mirror; an empty Bucket
// disables it.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// RateLimitConfig configures the per-IP limiter; RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

var compressions = map[string]bool{"snappy": true, "gzip": true, "zstd": true, "none": true, "uncompressed": true}

// LoadConfig initializes the global AppConfig.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env (if present; loaded with godotenv, never overriding
//     variables already set).
//  3. Environment variables.
//
// Fatal exit:
//   - If the configuration is invalid, validateConfig() terminates the app
//     with a descriptive log message.
func LoadConfig() {
	_ = godotenv.Load(".env") // ignore error if no .env

	setDefaults()
	viper.AutomaticEnv()

	AppConfig = fromViper()
	validateConfig()
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "10s")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "b3_scraper")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("DATA_DIR", "files/stocks")
	viper.SetDefault("INGEST_BATCH_SIZE", 1000)
	viper.SetDefault("INGEST_BATCH_TIMEOUT", "30s")
	viper.SetDefault("INGEST_PARALLEL", 0)
	viper.SetDefault("INGEST_TRACK", false)
	viper.SetDefault("PARQUET_COMPRESSION", "snappy")

	viper.SetDefault("FETCH_BASE_URL", "https://bvmf.bmfbovespa.com.br/InstDados/SerHist")
	viper.SetDefault("FETCH_TIMEOUT", "2m")

	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_PREFIX", "cotahist")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_PATH_STYLE", false)
	viper.SetDefault("S3_ACCESS_KEY_ID", "")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "")

	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
}

func fromViper() Config {
	cfg := Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RequestTimeout: viper.GetDuration("SERVER_REQUEST_TIMEOUT"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Ingest: IngestConfig{
			DataDir:      viper.GetString("DATA_DIR"),
			BatchSize:    viper.GetInt("INGEST_BATCH_SIZE"),
			BatchTimeout: viper.GetDuration("INGEST_BATCH_TIMEOUT"),
			Parallel:     viper.GetInt("INGEST_PARALLEL"),
			Track:        viper.GetBool("INGEST_TRACK"),
			Compression:  strings.ToLower(viper.GetString("PARQUET_COMPRESSION")),
		},
		Fetch: FetchConfig{
			BaseURL: viper.GetString("FETCH_BASE_URL"),
			Timeout: viper.GetDuration("FETCH_TIMEOUT"),
		},
		S3: S3Config{
			Bucket:          viper.GetString("S3_BUCKET"),
			Prefix:          viper.GetString("S3_PREFIX"),
			Region:          viper.GetString("S3_REGION"),
			Endpoint:        viper.GetString("S3_ENDPOINT"),
			PathStyle:       viper.GetBool("S3_PATH_STYLE"),
			AccessKeyID:     viper.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("S3_SECRET_ACCESS_KEY"),
		},
		RateLimit: RateLimitConfig{
			RPS:   viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst: viper.GetInt("RATE_LIMIT_BURST"),
		},
	}
	cfg.Postgres.URL = cfg.Postgres.DSN()
	return cfg
}

// DSN builds the PostgreSQL connection string used by database/sql.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

// Validate reports every missing or out-of-range setting.
func (c Config) Validate() error {
	var missing []string
	if c.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if c.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if c.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if c.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if c.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if c.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if c.Ingest.DataDir == "" {
		missing = append(missing, "DATA_DIR")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %v", missing))
	}
	if c.Ingest.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("INGEST_BATCH_SIZE must be positive, got %d", c.Ingest.BatchSize))
	}
	if c.Ingest.Parallel < 0 {
		errs = append(errs, fmt.Errorf("INGEST_PARALLEL must not be negative, got %d", c.Ingest.Parallel))
	}
	if !compressions[c.Ingest.Compression] {
		errs = append(errs, fmt.Errorf("PARQUET_COMPRESSION %q is not one of snappy, gzip, zstd, none", c.Ingest.Compression))
	}
	if c.S3.Bucket != "" && (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		errs = append(errs, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together"))
	}
	return errors.Join(errs...)
}

// validateConfig terminates the application when AppConfig is invalid.
func validateConfig() {
	if err := AppConfig.Validate(); err != nil {
		logger.L().Fatal().Err(err).Msg("invalid configuration")
	}
}
