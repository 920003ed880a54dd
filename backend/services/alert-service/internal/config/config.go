package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "evmalert/backend/libs/config"
)

// Config defines alert service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Telegram TelegramConfig `yaml:"telegram"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Redis    RedisConfig    `yaml:"redis"`
	NATS     NATSConfig     `yaml:"nats"`
	Auth     AuthConfig     `yaml:"auth"`
}

// HTTPConfig configures the admin HTTP server.
type HTTPConfig struct {
	Port string `yaml:"port" env:"ALERT_HTTP_PORT"`
}

// DatabaseConfig points at the telemetry store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"ALERT_POSTGRES_DSN"`
}

// TelegramConfig configures the chat transport.
type TelegramConfig struct {
	Token            string `yaml:"token" env:"BOT_TOKEN"`
	APIURL           string `yaml:"apiUrl" env:"TELEGRAM_API_URL"`
	BroadcastChannel string `yaml:"broadcastChannel" env:"TELEGRAM_BROADCAST_CHANNEL"`
	PollTimeout      int    `yaml:"pollTimeoutSeconds" env:"TELEGRAM_POLL_TIMEOUT"`
}

// SMTPConfig configures email delivery.
type SMTPConfig struct {
	Enabled    bool     `yaml:"enabled" env:"USE_SMTP"`
	Host       string   `yaml:"host" env:"SMTP_HOST"`
	Port       int      `yaml:"port" env:"SMTP_PORT"`
	Login      string   `yaml:"login" env:"SMTP_LOGIN"`
	Password   string   `yaml:"password" env:"SMTP_PASSWORD"`
	From       string   `yaml:"from" env:"SMTP_FROM"`
	Recipients []string `yaml:"recipients" env:"SMTP_RECIPIENTS"`
}

// MonitorConfig holds the poll loop and alert thresholds.
type MonitorConfig struct {
	IntervalSeconds     int      `yaml:"intervalSeconds" env:"MONITOR_INTERVAL_SECONDS"`
	WindowMinutes       int      `yaml:"suppressionWindowMinutes" env:"MONITOR_SUPPRESSION_MINUTES"`
	FetchLimit          int      `yaml:"fetchLimit" env:"MONITOR_FETCH_LIMIT"`
	BatteryFloor        float64  `yaml:"batteryFloor" env:"MONITOR_BATTERY_FLOOR"`
	TemperatureCeiling  float64  `yaml:"temperatureCeiling" env:"MONITOR_TEMPERATURE_CEILING"`
	SegmentVoltageFloor float64  `yaml:"segmentVoltageFloor" env:"MONITOR_SEGMENT_FLOOR"`
	FaultCodes          []string `yaml:"faultCodes" env:"MONITOR_FAULT_CODES"`
}

// RedisConfig configures the suppression snapshot store. Empty Addr disables it.
type RedisConfig struct {
	Addr       string `yaml:"addr" env:"ALERT_REDIS_ADDR"`
	Password   string `yaml:"password" env:"ALERT_REDIS_PASSWORD"`
	DB         int    `yaml:"db" env:"ALERT_REDIS_DB"`
	TTLMinutes int    `yaml:"ttlMinutes" env:"ALERT_REDIS_TTL_MINUTES"`
}

// NATSConfig configures the alert bus publisher. Empty URL disables it.
type NATSConfig struct {
	URL           string `yaml:"url" env:"NATS_URL"`
	SubjectPrefix string `yaml:"subjectPrefix" env:"NATS_SUBJECT_PREFIX"`
}

// AuthConfig protects the admin API.
type AuthConfig struct {
	JWTSecret        string `yaml:"jwtSecret" env:"ALERT_JWT_SECRET"`
	ExpiresInMinutes int    `yaml:"expiresInMinutes" env:"ALERT_JWT_EXPIRES_MINUTES"`
	OperatorLogin    string `yaml:"operatorLogin" env:"ALERT_OPERATOR_LOGIN"`
	OperatorHash     string `yaml:"operatorPasswordHash" env:"ALERT_OPERATOR_PASSWORD_HASH"`
}

// Defaults returns configuration populated with production defaults.
func Defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{Port: "8085"},
		Telegram: TelegramConfig{
			APIURL:           "https://api.telegram.org",
			BroadcastChannel: "@EVMAlertChannel",
			PollTimeout:      30,
		},
		SMTP: SMTPConfig{
			Port: 587,
			From: "i.r.kron@evm.eco",
			Recipients: []string{
				"i.r.kron@evm.eco",
				"technical.support@evm.eco",
			},
		},
		Monitor: MonitorConfig{
			IntervalSeconds:     10,
			WindowMinutes:       120,
			FetchLimit:          1000,
			BatteryFloor:        5,
			TemperatureCeiling:  35,
			SegmentVoltageFloor: 32.4,
			FaultCodes:          []string{"P0A78", "P0AFA", "P0562"},
		},
		Redis:    RedisConfig{TTLMinutes: 24 * 60},
		NATS:     NATSConfig{SubjectPrefix: "alerts"},
		Auth:     AuthConfig{ExpiresInMinutes: 60},
		Database: DatabaseConfig{},
	}
}

// Load reads configuration via the shared loader and validates required fields.
func Load() (*Config, error) {
	cfg := Defaults()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks fields the service cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("config: telegram bot token required")
	}
	if c.SMTP.Enabled {
		if strings.TrimSpace(c.SMTP.Host) == "" {
			return errors.New("config: smtp host required when smtp is enabled")
		}
		if len(c.SMTP.Recipients) == 0 {
			return errors.New("config: smtp recipients required when smtp is enabled")
		}
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: jwt secret required")
	}
	if len(c.Monitor.FaultCodes) == 0 {
		return errors.New("config: at least one fault code required")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8085"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// SMTPAddress returns host:port for the mail server.
func (c *Config) SMTPAddress() string {
	port := c.SMTP.Port
	if port <= 0 {
		port = 587
	}
	return fmt.Sprintf("%s:%d", c.SMTP.Host, port)
}

// PollInterval returns the delay between poll iterations.
func (c *Config) PollInterval() time.Duration {
	if c.Monitor.IntervalSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Monitor.IntervalSeconds) * time.Second
}

// SuppressionWindow returns the per device+condition cool-down.
func (c *Config) SuppressionWindow() time.Duration {
	if c.Monitor.WindowMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.Monitor.WindowMinutes) * time.Minute
}

// FetchLimit returns how many latest rows are read per table.
func (c *Config) FetchLimit() int {
	if c.Monitor.FetchLimit <= 0 {
		return 1000
	}
	return c.Monitor.FetchLimit
}

// SnapshotTTL returns how long persisted suppression entries live in redis.
func (c *Config) SnapshotTTL() time.Duration {
	if c.Redis.TTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.TTLMinutes) * time.Minute
}

// JWTExpiration converts configured expiry to duration.
func (c *Config) JWTExpiration() time.Duration {
	if c.Auth.ExpiresInMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Auth.ExpiresInMinutes) * time.Minute
}

// TelegramPollTimeout returns the long-poll timeout for getUpdates.
func (c *Config) TelegramPollTimeout() int {
	if c.Telegram.PollTimeout <= 0 {
		return 30
	}
	return c.Telegram.PollTimeout
}
