package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "droqsdb/overseasreporter/pkg/errors"
)

// Host modes
const (
	HostModeChrome = "chrome"
	HostModeFetch  = "fetch"
)

// Cooldown backends
const (
	CooldownMemory   = "memory"
	CooldownMemcache = "memcache"
	CooldownRedis    = "redis"
)

// Config represents the application configuration
type Config struct {
	// Document host
	HostMode       string
	PageURL        string
	PageCookie     string
	ChromeRemote   string
	ChromeHeadless bool
	FetchInterval  time.Duration

	// Upload transport
	ReportEndpoint string
	ReportTimeout  time.Duration
	ReportMaxItems int
	ClientID       string

	// Extraction tuning
	Debounce       time.Duration
	LooseMinYield  int
	ProbeEnabled   bool
	ProbeAttempts  int
	ProbeInterval  time.Duration
	ProbePaceEvery int
	ProbePacePause time.Duration
	ProbeSettle    time.Duration

	// Cooldown persistence
	CooldownBackend  string
	CooldownInterval time.Duration

	// Memcache configuration
	MemcacheAddr string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Status presentation
	StatusHideAfter time.Duration
	StatusBadge     bool

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		HostMode:       strings.ToLower(getEnv("HOST_MODE", HostModeChrome)),
		PageURL:        getEnv("PAGE_URL", "https://www.torn.com/page.php?sid=travel"),
		PageCookie:     getEnv("PAGE_COOKIE", ""),
		ChromeRemote:   getEnv("CHROME_REMOTE_URL", ""),
		ChromeHeadless: getEnvBool("CHROME_HEADLESS", true),
		FetchInterval:  time.Duration(getEnvInt("FETCH_INTERVAL_SECONDS", 60)) * time.Second,

		ReportEndpoint: getEnv("REPORT_ENDPOINT", "https://droqsdb.com/api/report-stock"),
		ReportTimeout:  time.Duration(getEnvInt("REPORT_TIMEOUT_SECONDS", 20)) * time.Second,
		ReportMaxItems: getEnvInt("REPORT_MAX_ITEMS", 300),
		ClientID:       getEnv("REPORT_CLIENT_ID", "overseas-reporter/2.0"),

		Debounce:       time.Duration(getEnvInt("DEBOUNCE_MS", 600)) * time.Millisecond,
		LooseMinYield:  getEnvInt("LOOSE_MIN_YIELD", 5),
		ProbeEnabled:   getEnvBool("PROBE_ENABLED", true),
		ProbeAttempts:  getEnvInt("PROBE_ATTEMPTS", 12),
		ProbeInterval:  time.Duration(getEnvInt("PROBE_INTERVAL_MS", 150)) * time.Millisecond,
		ProbePaceEvery: getEnvInt("PROBE_PACE_EVERY", 4),
		ProbePacePause: time.Duration(getEnvInt("PROBE_PACE_MS", 400)) * time.Millisecond,
		ProbeSettle:    time.Duration(getEnvInt("PROBE_SETTLE_MS", 120)) * time.Millisecond,

		CooldownBackend:  strings.ToLower(getEnv("COOLDOWN_BACKEND", CooldownMemory)),
		CooldownInterval: time.Duration(getEnvInt("COOLDOWN_SECONDS", 30)) * time.Second,

		MemcacheAddr: getEnv("MEMCACHE_ADDR", "localhost:11211"),

		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", ""),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),

		StatusHideAfter: time.Duration(getEnvInt("STATUS_HIDE_SECONDS", 6)) * time.Second,
		StatusBadge:     getEnvBool("STATUS_BADGE", true),

		Environment: getEnv("REPORTER_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the reporter cannot run with
func (c *Config) Validate() error {
	switch c.HostMode {
	case HostModeChrome, HostModeFetch:
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown HOST_MODE %q", c.HostMode), nil)
	}
	if c.PageURL == "" {
		return apperrors.NewConfiguration("PAGE_URL is required", nil)
	}
	if c.ReportEndpoint == "" {
		return apperrors.NewConfiguration("REPORT_ENDPOINT is required", nil)
	}
	if c.ReportTimeout <= 0 {
		return apperrors.NewConfiguration("REPORT_TIMEOUT_SECONDS must be positive", nil)
	}
	if c.ReportMaxItems <= 0 {
		return apperrors.NewConfiguration("REPORT_MAX_ITEMS must be positive", nil)
	}
	if c.Debounce <= 0 {
		return apperrors.NewConfiguration("DEBOUNCE_MS must be positive", nil)
	}
	if c.LooseMinYield < 1 {
		return apperrors.NewConfiguration("LOOSE_MIN_YIELD must be at least 1", nil)
	}
	if c.ProbeAttempts < 1 || c.ProbeInterval <= 0 {
		return apperrors.NewConfiguration("probe attempts and interval must be positive", nil)
	}
	switch c.CooldownBackend {
	case CooldownMemory, CooldownMemcache, CooldownRedis:
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown COOLDOWN_BACKEND %q", c.CooldownBackend), nil)
	}
	if c.CooldownInterval < 0 {
		return apperrors.NewConfiguration("COOLDOWN_SECONDS must not be negative", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return b
}
