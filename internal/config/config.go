package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Zammad       ZammadConfig
	Refresh      RefreshConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	BasePath              string
	RequestTimeoutSeconds int
}

// ZammadConfig describes the upstream helpdesk API.
type ZammadConfig struct {
	URL            string `yaml:"url"`
	ExternalURL    string `yaml:"external_url"`
	SessionCookie  string `yaml:"session_cookie"`
	PerPage        int    `yaml:"per_page"`
	MaxPages       int    `yaml:"max_pages"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RefreshConfig controls polling and view defaults.
type RefreshConfig struct {
	IntervalSeconds     int    `yaml:"interval_seconds"`
	DefaultPeriodDays   int    `yaml:"default_period_days"`
	MaxPeriodDays       int    `yaml:"max_period_days"`
	Timezone            string `yaml:"timezone"`
	CycleTimeoutSeconds int    `yaml:"cycle_timeout_seconds"`
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	KeyPrefix      string
	ViewTTLMinutes int
}

// ViewTTL is how long a cached dashboard view stays usable.
func (r RedisConfig) ViewTTL() time.Duration {
	return time.Duration(r.ViewTTLMinutes) * time.Minute
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// AuthConfig defines viewer token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig controls arrival notifications.
type NotificationConfig struct {
	OSPermission string `yaml:"os_permission"`
	WebhookURL   string `yaml:"webhook_url"`
	ToastSeconds int    `yaml:"toast_seconds"`
	Channel      string `yaml:"channel"`
}

// fileOverlay is the subset of settings that may come from a YAML file.
type fileOverlay struct {
	Zammad       *ZammadConfig       `yaml:"zammad"`
	Refresh      *RefreshConfig      `yaml:"refresh"`
	Notification *NotificationConfig `yaml:"notification"`
}

// Options tunes Load.
type Options struct {
	EnvFile    string
	ConfigFile string
}

// Load reads configuration from environment variables, applying defaults where possible.
// Values from an optional YAML file override the environment for the
// zammad, refresh and notification sections.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-dashboard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			BasePath:              getEnv("APP_BASE_PATH", "/dashboard"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Zammad: ZammadConfig{
			URL:            os.Getenv("ZAMMAD_URL"),
			ExternalURL:    os.Getenv("ZAMMAD_EXTERNAL_URL"),
			SessionCookie:  os.Getenv("ZAMMAD_SESSION_COOKIE"),
			PerPage:        getEnvAsInt("ZAMMAD_PER_PAGE", 100),
			MaxPages:       getEnvAsInt("ZAMMAD_MAX_PAGES", 50),
			TimeoutSeconds: getEnvAsInt("ZAMMAD_TIMEOUT_SECONDS", 20),
		},
		Refresh: RefreshConfig{
			IntervalSeconds:     getEnvAsInt("REFRESH_INTERVAL_SECONDS", 15),
			DefaultPeriodDays:   getEnvAsInt("REFRESH_DEFAULT_PERIOD_DAYS", 7),
			MaxPeriodDays:       getEnvAsInt("REFRESH_MAX_PERIOD_DAYS", 365),
			Timezone:            getEnv("DASHBOARD_TIMEZONE", "Local"),
			CycleTimeoutSeconds: getEnvAsInt("REFRESH_CYCLE_TIMEOUT_SECONDS", 60),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 5)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:           os.Getenv("REDIS_ADDR"),
			Password:       os.Getenv("REDIS_PASSWORD"),
			DB:             redisDB,
			KeyPrefix:      getEnv("REDIS_KEY_PREFIX", "helpdesk-dashboard"),
			ViewTTLMinutes: getEnvAsInt("REDIS_VIEW_TTL_MINUTES", 60),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
		},
		Notification: NotificationConfig{
			OSPermission: getEnv("NOTIFY_OS_PERMISSION", "default"),
			WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
			ToastSeconds: getEnvAsInt("NOTIFY_TOAST_SECONDS", 5),
			Channel:      getEnv("NOTIFY_REDIS_CHANNEL", "dashboard:notifications"),
		},
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv("DASHBOARD_CONFIG_FILE")
	}
	if configFile != "" {
		if err := cfg.applyFile(configFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if z := overlay.Zammad; z != nil {
		setString(&c.Zammad.URL, z.URL)
		setString(&c.Zammad.ExternalURL, z.ExternalURL)
		setString(&c.Zammad.SessionCookie, z.SessionCookie)
		setInt(&c.Zammad.PerPage, z.PerPage)
		setInt(&c.Zammad.MaxPages, z.MaxPages)
		setInt(&c.Zammad.TimeoutSeconds, z.TimeoutSeconds)
	}
	if r := overlay.Refresh; r != nil {
		setInt(&c.Refresh.IntervalSeconds, r.IntervalSeconds)
		setInt(&c.Refresh.DefaultPeriodDays, r.DefaultPeriodDays)
		setInt(&c.Refresh.MaxPeriodDays, r.MaxPeriodDays)
		setString(&c.Refresh.Timezone, r.Timezone)
		setInt(&c.Refresh.CycleTimeoutSeconds, r.CycleTimeoutSeconds)
	}
	if n := overlay.Notification; n != nil {
		setString(&c.Notification.OSPermission, n.OSPermission)
		setString(&c.Notification.WebhookURL, n.WebhookURL)
		setInt(&c.Notification.ToastSeconds, n.ToastSeconds)
		setString(&c.Notification.Channel, n.Channel)
	}
	return nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Zammad.URL) == "" {
		return fmt.Errorf("ZAMMAD_URL is required")
	}
	if c.Zammad.PerPage <= 0 {
		return fmt.Errorf("invalid ZAMMAD_PER_PAGE: %d", c.Zammad.PerPage)
	}
	if c.Refresh.IntervalSeconds <= 0 {
		return fmt.Errorf("invalid REFRESH_INTERVAL_SECONDS: %d", c.Refresh.IntervalSeconds)
	}
	if _, err := c.Refresh.Location(); err != nil {
		return fmt.Errorf("invalid DASHBOARD_TIMEZONE: %w", err)
	}
	switch c.Notification.OSPermission {
	case "granted", "denied", "default":
	default:
		return fmt.Errorf("invalid NOTIFY_OS_PERMISSION: %q", c.Notification.OSPermission)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LinkBase returns the origin used for clickable ticket links.
func (z ZammadConfig) LinkBase() string {
	if z.ExternalURL != "" {
		return strings.TrimRight(z.ExternalURL, "/")
	}
	return strings.TrimRight(z.URL, "/")
}

// Timeout returns the per-request timeout for upstream calls.
func (z ZammadConfig) Timeout() time.Duration {
	if z.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(z.TimeoutSeconds) * time.Second
}

// Interval returns the polling interval.
func (r RefreshConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

// CycleTimeout bounds a single refresh cycle.
func (r RefreshConfig) CycleTimeout() time.Duration {
	if r.CycleTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(r.CycleTimeoutSeconds) * time.Second
}

// Location resolves the configured timezone used for day boundaries.
func (r RefreshConfig) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(r.Timezone)
}

// ToastTTL returns how long in-app toasts stay visible.
func (n NotificationConfig) ToastTTL() time.Duration {
	if n.ToastSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(n.ToastSeconds) * time.Second
}

func setString(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

func setInt(dst *int, val int) {
	if val != 0 {
		*dst = val
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
