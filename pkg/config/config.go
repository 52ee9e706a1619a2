package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Dynamo     DynamoConfig
	S3         S3Config
	Redis      RedisConfig
	NATS       NATSConfig
	CloudWatch CloudWatchConfig
	Security   SecurityConfig
	Benchmarks BenchmarksConfig
	Ingest     IngestConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type DynamoConfig struct {
	Enabled         bool
	TableRunIndex   string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
	FallbackToDB    bool
}

type S3Config struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	KeyPrefix       string
	URLMode         string
	PresignedTTL    time.Duration
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Password     string
	DB           int
	TTL          time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type NATSConfig struct {
	Enabled bool
	URL     string
}

type CloudWatchConfig struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	MetricsEnabled           bool
	MetricsNamespace         string
	MetricsDimensions        map[string]string
	MetricsBufferSize        int
	MetricsFlushInterval     time.Duration
	MetricsStorageResolution int32

	LogsEnabled       bool
	LogGroupName      string
	LogStreamName     string
	LogsBufferSize    int
	LogsFlushInterval time.Duration
}

type SecurityConfig struct {
	AllowedOrigins []string
	AuthEnabled    bool
	AuthToken      string
	RateLimitRPS   float64
	RateLimitBurst int
}

type BenchmarksConfig struct {
	RepoURL             string
	KeyPrefix           string
	MaxRunsPerSuite     int
	MaxHistoryDuration  time.Duration
	RegressionThreshold float64
	PublishDebounce     time.Duration
	AutoPublish         bool
}

type IngestConfig struct {
	MaxPayloadBytes    int64
	RateLimitPerMinute int
	AllowBackfill      bool
}

func Load() (*Config, error) {
	// .env is optional, ignore a missing file
	_ = godotenv.Load()

	redisTTL, err := parseDuration(getEnv("REDIS_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_TTL: %w", err)
	}

	presignedTTL, err := parseDuration(getEnv("S3_PRESIGNED_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid S3_PRESIGNED_TTL: %w", err)
	}

	metricsFlushInterval, err := parseDuration(getEnv("CLOUDWATCH_METRICS_FLUSH_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_METRICS_FLUSH_INTERVAL: %w", err)
	}

	logsFlushInterval, err := parseDuration(getEnv("CLOUDWATCH_LOGS_FLUSH_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOUDWATCH_LOGS_FLUSH_INTERVAL: %w", err)
	}

	maxHistoryDuration, err := parseDuration(getEnv("BENCHMARKS_MAX_HISTORY_DURATION", "2160h"))
	if err != nil {
		return nil, fmt.Errorf("invalid BENCHMARKS_MAX_HISTORY_DURATION: %w", err)
	}

	publishDebounce, err := parseDuration(getEnv("BENCHMARKS_PUBLISH_DEBOUNCE", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BENCHMARKS_PUBLISH_DEBOUNCE: %w", err)
	}

	maxRunsPerSuite, err := strconv.Atoi(getEnv("BENCHMARKS_MAX_RUNS_PER_SUITE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid BENCHMARKS_MAX_RUNS_PER_SUITE: %w", err)
	}

	regressionThreshold, err := strconv.ParseFloat(getEnv("BENCHMARKS_REGRESSION_THRESHOLD", "1.5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid BENCHMARKS_REGRESSION_THRESHOLD: %w", err)
	}

	maxPayloadMB, err := strconv.Atoi(getEnv("INGEST_MAX_PAYLOAD_MB", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_MAX_PAYLOAD_MB: %w", err)
	}

	ingestRateLimitPerMinute, err := strconv.Atoi(getEnv("INGEST_RATE_LIMIT_PER_MINUTE", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid INGEST_RATE_LIMIT_PER_MINUTE: %w", err)
	}

	rateLimitRPS, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateLimitBurst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "benchtrack"),
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Dynamo: DynamoConfig{
			Enabled:         getEnvBool("DYNAMO_ENABLED", false),
			TableRunIndex:   getEnv("DYNAMO_TABLE_RUN_INDEX", "benchtrack-run-index"),
			Region:          getEnv("DYNAMO_REGION", "us-east-1"),
			Endpoint:        getEnv("DYNAMO_ENDPOINT", ""),
			AccessKeyID:     getEnv("DYNAMO_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("DYNAMO_SECRET_ACCESS_KEY", ""),
			StrongReads:     getEnvBool("DYNAMO_STRONG_READS", false),
			FallbackToDB:    getEnvBool("DYNAMO_FALLBACK_TO_DB", true),
		},
		S3: S3Config{
			Enabled:         getEnvBool("S3_ENABLED", false),
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
			KeyPrefix:       getEnv("S3_KEY_PREFIX", "benchmarks"),
			URLMode:         getEnv("S3_URL_MODE", "public"),
			PresignedTTL:    presignedTTL,
		},
		Redis: RedisConfig{
			Enabled:      getEnvBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           redisDB,
			TTL:          redisTTL,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		NATS: NATSConfig{
			Enabled: getEnvBool("NATS_ENABLED", false),
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
		},
		CloudWatch: CloudWatchConfig{
			Region:          getEnv("CLOUDWATCH_REGION", "us-east-1"),
			Endpoint:        getEnv("CLOUDWATCH_ENDPOINT", ""),
			AccessKeyID:     getEnv("CLOUDWATCH_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("CLOUDWATCH_SECRET_ACCESS_KEY", ""),

			MetricsEnabled:   getEnvBool("CLOUDWATCH_METRICS_ENABLED", false),
			MetricsNamespace: getEnv("CLOUDWATCH_METRICS_NAMESPACE", "Benchtrack/Benchmarks"),
			MetricsDimensions: map[string]string{
				"Service": getEnv("CLOUDWATCH_SERVICE_DIMENSION", "benchtrack-api"),
			},
			MetricsBufferSize:        100,
			MetricsFlushInterval:     metricsFlushInterval,
			MetricsStorageResolution: 60,

			LogsEnabled:       getEnvBool("CLOUDWATCH_LOGS_ENABLED", false),
			LogGroupName:      getEnv("CLOUDWATCH_LOG_GROUP", "/benchtrack/api"),
			LogStreamName:     getEnv("CLOUDWATCH_LOG_STREAM", "api"),
			LogsBufferSize:    50,
			LogsFlushInterval: logsFlushInterval,
		},
		Security: SecurityConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
			AuthEnabled:    getEnvBool("AUTH_ENABLED", false),
			AuthToken:      getEnv("AUTH_BEARER_TOKEN", ""),
			RateLimitRPS:   rateLimitRPS,
			RateLimitBurst: rateLimitBurst,
		},
		Benchmarks: BenchmarksConfig{
			RepoURL:             getEnv("BENCHMARKS_REPO_URL", ""),
			KeyPrefix:           getEnv("S3_KEY_PREFIX", "benchmarks"),
			MaxRunsPerSuite:     maxRunsPerSuite,
			MaxHistoryDuration:  maxHistoryDuration,
			RegressionThreshold: regressionThreshold,
			PublishDebounce:     publishDebounce,
			AutoPublish:         getEnvBool("BENCHMARKS_AUTO_PUBLISH", false),
		},
		Ingest: IngestConfig{
			MaxPayloadBytes:    int64(maxPayloadMB) * 1024 * 1024,
			RateLimitPerMinute: ingestRateLimitPerMinute,
			AllowBackfill:      getEnvBool("INGEST_ALLOW_BACKFILL", false),
		},
	}

	if cfg.Security.AuthEnabled && cfg.Security.AuthToken == "" {
		return nil, fmt.Errorf("AUTH_BEARER_TOKEN is required when AUTH_ENABLED=true")
	}
	if cfg.Benchmarks.RegressionThreshold <= 1 {
		return nil, fmt.Errorf("BENCHMARKS_REGRESSION_THRESHOLD must be greater than 1")
	}
	if cfg.Benchmarks.AutoPublish && !cfg.S3.Enabled {
		return nil, fmt.Errorf("S3_ENABLED is required when BENCHMARKS_AUTO_PUBLISH=true")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Database)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func splitCSV(raw string) []string {
	items := make([]string, 0)
	current := ""

	for _, r := range raw {
		if r == ',' {
			if current != "" {
				items = append(items, current)
				current = ""
			}
			continue
		}
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			current += string(r)
		}
	}

	if current != "" {
		items = append(items, current)
	}

	return items
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
