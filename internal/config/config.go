package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/riskibarqy/matchsync/internal/platform/logging"
	"github.com/riskibarqy/matchsync/internal/platform/resilience"
)

// Config stores runtime configuration for the reconciler.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level
	LogFormat      string

	DBURL                   string
	DBDisablePreparedBinary bool
	DBMaxOpenConns          int
	DBMaxIdleConns          int
	DBConnMaxLifetime       time.Duration

	GameTitles    []string
	CycleSchedule string
	CycleTimeout  time.Duration
	LockDir       string

	FeedBaseURL    string
	FeedToken      string
	FeedTimeout    time.Duration
	FeedMaxRetries int
	FeedCircuit    resilience.CircuitBreakerConfig

	SourceBaseURL    string
	SourceUserAgent  string
	SourceTimeout    time.Duration
	SourceMaxRetries int
	SourceCircuit    resilience.CircuitBreakerConfig
	DetailCacheTTL   time.Duration

	StatusLead         time.Duration
	StatusLag          time.Duration
	LiveWindow         time.Duration
	BackfillGrace      time.Duration
	BackfillPageSize   int
	BackfillWorkers    int
	FuzzyWindow        time.Duration
	MigrationWindow    time.Duration
	WriteRetryAttempts int
	WriteRetryBackoff  time.Duration

	RedisEnabled      bool
	RedisURL          string
	RedisStream       string
	RedisStreamMaxLen int64

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

// Load reads the process environment. A .env file in the working directory,
// when present, fills variables that are not already set.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load()
}

func load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_NAME", "matchsync"),
		ServiceVersion: getEnv("APP_VERSION", "dev"),
		LogLevel:       logging.ParseLevel(getEnv("LOG_LEVEL", "info")),
		CycleSchedule:  strings.TrimSpace(getEnv("CYCLE_SCHEDULE", "@every 5m")),
		LockDir:        strings.TrimSpace(getEnv("LOCK_DIR", os.TempDir())),
		FeedBaseURL:    strings.TrimRight(strings.TrimSpace(getEnv("FEED_BASE_URL", "")), "/"),
		FeedToken:      strings.TrimSpace(getEnv("FEED_TOKEN", "")),
		SourceBaseURL:  strings.TrimRight(strings.TrimSpace(getEnv("SOURCE_BASE_URL", "https://liquipedia.net")), "/"),
		SourceUserAgent: strings.TrimSpace(getEnv("SOURCE_USER_AGENT",
			"matchsync/1.0 (https://github.com/riskibarqy/matchsync)")),
		RedisURL:                   strings.TrimSpace(getEnv("REDIS_URL", "")),
		RedisStream:                strings.TrimSpace(getEnv("REDIS_STREAM", "matchsync:events")),
		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAppName:           strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", "")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""),
	}

	cfg.LogFormat, err = parseLogFormat(getEnv("LOG_FORMAT", "json"))
	if err != nil {
		return Config{}, err
	}

	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY_RESULT", false); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxOpenConns, err = getEnvAsPositiveInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxIdleConns, err = getEnvAsPositiveInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return Config{}, err
	}
	if cfg.DBConnMaxLifetime, err = getEnvAsPositiveDuration("DB_CONN_MAX_LIFETIME", "30m"); err != nil {
		return Config{}, err
	}

	cfg.GameTitles = splitCSV(strings.ToLower(getEnv("GAME_TITLES", "dota2")))
	if len(cfg.GameTitles) == 0 {
		return Config{}, fmt.Errorf("GAME_TITLES must list at least one title")
	}
	if cfg.CycleSchedule == "" {
		return Config{}, fmt.Errorf("CYCLE_SCHEDULE is required")
	}
	if cfg.CycleTimeout, err = getEnvAsPositiveDuration("CYCLE_TIMEOUT", "4m"); err != nil {
		return Config{}, err
	}
	if cfg.LockDir == "" {
		return Config{}, fmt.Errorf("LOCK_DIR is required")
	}

	if cfg.FeedBaseURL == "" {
		return Config{}, fmt.Errorf("FEED_BASE_URL is required")
	}
	if cfg.FeedTimeout, err = getEnvAsPositiveDuration("FEED_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.FeedMaxRetries, err = getEnvAsInt("FEED_MAX_RETRIES", 2); err != nil {
		return Config{}, fmt.Errorf("parse FEED_MAX_RETRIES: %w", err)
	}
	if cfg.FeedMaxRetries < 0 {
		return Config{}, fmt.Errorf("FEED_MAX_RETRIES must be >= 0")
	}
	if cfg.FeedCircuit, err = loadCircuit("FEED"); err != nil {
		return Config{}, err
	}

	if cfg.SourceBaseURL == "" {
		return Config{}, fmt.Errorf("SOURCE_BASE_URL is required")
	}
	if cfg.SourceTimeout, err = getEnvAsPositiveDuration("SOURCE_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.SourceMaxRetries, err = getEnvAsInt("SOURCE_MAX_RETRIES", 1); err != nil {
		return Config{}, fmt.Errorf("parse SOURCE_MAX_RETRIES: %w", err)
	}
	if cfg.SourceMaxRetries < 0 {
		return Config{}, fmt.Errorf("SOURCE_MAX_RETRIES must be >= 0")
	}
	if cfg.SourceCircuit, err = loadCircuit("SOURCE"); err != nil {
		return Config{}, err
	}
	if cfg.DetailCacheTTL, err = getEnvAsPositiveDuration("DETAIL_CACHE_TTL", "10m"); err != nil {
		return Config{}, err
	}

	if cfg.StatusLead, err = getEnvAsPositiveDuration("STATUS_LEAD", "5m"); err != nil {
		return Config{}, err
	}
	if cfg.StatusLag, err = getEnvAsPositiveDuration("STATUS_LAG", "5m"); err != nil {
		return Config{}, err
	}
	if cfg.LiveWindow, err = getEnvAsPositiveDuration("LIVE_WINDOW", "4h"); err != nil {
		return Config{}, err
	}
	if cfg.BackfillGrace, err = getEnvAsPositiveDuration("BACKFILL_GRACE", "10m"); err != nil {
		return Config{}, err
	}
	if cfg.BackfillPageSize, err = getEnvAsPositiveInt("BACKFILL_PAGE_SIZE", 200); err != nil {
		return Config{}, err
	}
	if cfg.BackfillWorkers, err = getEnvAsPositiveInt("BACKFILL_WORKERS", 4); err != nil {
		return Config{}, err
	}
	if cfg.FuzzyWindow, err = getEnvAsPositiveDuration("FUZZY_WINDOW", "8h"); err != nil {
		return Config{}, err
	}
	if cfg.MigrationWindow, err = getEnvAsPositiveDuration("MIGRATION_WINDOW", "15m"); err != nil {
		return Config{}, err
	}
	if cfg.WriteRetryAttempts, err = getEnvAsPositiveInt("WRITE_RETRY_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.WriteRetryBackoff, err = getEnvAsPositiveDuration("WRITE_RETRY_BACKOFF", "1s"); err != nil {
		return Config{}, err
	}

	if cfg.RedisEnabled, err = getEnvAsBool("REDIS_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.RedisEnabled && cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL is required when REDIS_ENABLED=true")
	}
	if cfg.RedisEnabled && cfg.RedisStream == "" {
		return Config{}, fmt.Errorf("REDIS_STREAM is required when REDIS_ENABLED=true")
	}
	maxLen, err := getEnvAsInt("REDIS_STREAM_MAXLEN", 10000)
	if err != nil {
		return Config{}, fmt.Errorf("parse REDIS_STREAM_MAXLEN: %w", err)
	}
	if maxLen < 0 {
		return Config{}, fmt.Errorf("REDIS_STREAM_MAXLEN must be >= 0")
	}
	cfg.RedisStreamMaxLen = int64(maxLen)

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeAppName == "" {
		cfg.PyroscopeAppName = cfg.ServiceName
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadCircuit(prefix string) (resilience.CircuitBreakerConfig, error) {
	defaults := resilience.DefaultCircuitBreakerConfig()
	cfg := resilience.CircuitBreakerConfig{}

	var err error
	if cfg.Enabled, err = getEnvAsBool(prefix+"_CIRCUIT_ENABLED", defaults.Enabled); err != nil {
		return cfg, err
	}
	if cfg.FailureThreshold, err = getEnvAsPositiveInt(prefix+"_CIRCUIT_FAILURE_COUNT", defaults.FailureThreshold); err != nil {
		return cfg, err
	}
	if cfg.OpenTimeout, err = getEnvAsPositiveDuration(prefix+"_CIRCUIT_OPEN_TIMEOUT", defaults.OpenTimeout.String()); err != nil {
		return cfg, err
	}
	if cfg.HalfOpenMaxReq, err = getEnvAsPositiveInt(prefix+"_CIRCUIT_HALF_OPEN_MAX_REQ", defaults.HalfOpenMaxReq); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsPositiveInt(key string, fallback int) (int, error) {
	out, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogFormat(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case LogFormatJSON, LogFormatConsole:
		return value, nil
	default:
		return "", fmt.Errorf("invalid LOG_FORMAT %q: valid values are %s, %s", v, LogFormatJSON, LogFormatConsole)
	}
}
