package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DB      DBConfig      `mapstructure:",squash"`
	Redis   RedisConfig   `mapstructure:",squash"`
	Server  ServerConfig  `mapstructure:",squash"`
	Booking BookingConfig `mapstructure:",squash"`
}

type DBConfig struct {
	// postgres или sqlite
	Driver          string `mapstructure:"DB_DRIVER"`
	Host            string `mapstructure:"DB_HOST"`
	Port            int    `mapstructure:"DB_PORT"`
	User            string `mapstructure:"DB_USER"`
	Password        string `mapstructure:"DB_PASSWORD"`
	Name            string `mapstructure:"DB_NAME"`
	SSLMode         string `mapstructure:"DB_SSLMODE"`
	TimeZone        string `mapstructure:"DB_TIMEZONE"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifeTime int    `mapstructure:"DB_CONN_MAX_LIFETIME_MIN"` // минут
	SQLitePath      string `mapstructure:"DB_SQLITE_PATH"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type ServerConfig struct {
	GRPCAddr          string `mapstructure:"GRPC_ADDR"`
	HTTPAddr          string `mapstructure:"HTTP_ADDR"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	// список через запятую, "*" разрешает всех
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
}

type BookingConfig struct {
	OperationTimeout  time.Duration `mapstructure:"BOOKING_TIMEOUT"`
	ReminderOffsets   string        `mapstructure:"REMINDER_OFFSETS"`
	DispatchSpec      string        `mapstructure:"REMINDER_DISPATCH_SPEC"`
	DispatchLookahead time.Duration `mapstructure:"REMINDER_LOOKAHEAD"`
	WorkerConcurrency int           `mapstructure:"REMINDER_WORKER_CONCURRENCY"`
}

var defaults = map[string]any{
	"APP_ENV":   "development",
	"LOG_LEVEL": "info",

	"DB_DRIVER":                "postgres",
	"DB_HOST":                  "postgres",
	"DB_PORT":                  5432,
	"DB_USER":                  "booking",
	"DB_PASSWORD":              "booking",
	"DB_NAME":                  "booking_db",
	"DB_SSLMODE":               "disable",
	"DB_TIMEZONE":              "Europe/Moscow",
	"DB_MAX_OPEN_CONNS":        10,
	"DB_MAX_IDLE_CONNS":        5,
	"DB_CONN_MAX_LIFETIME_MIN": 30,
	"DB_SQLITE_PATH":           "booking.db",

	"REDIS_ADDR":     "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"GRPC_ADDR":            ":50051",
	"HTTP_ADDR":            ":8080",
	"MAX_REQUESTS_PER_MIN": 100,
	"CORS_ORIGINS":         "*",

	"BOOKING_TIMEOUT":             "10s",
	"REMINDER_OFFSETS":            "24h,2h",
	"REMINDER_DISPATCH_SPEC":      "@every 1m",
	"REMINDER_LOOKAHEAD":          "5m",
	"REMINDER_WORKER_CONCURRENCY": 10,
}

// Load читает .env (если есть), config.yaml из . или ./config (если есть),
// затем переменные окружения. Переменные окружения имеют приоритет.
func Load(envFiles ...string) (*Config, error) {
	// в контейнере .env обычно нет
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres":
		// минимальная валидация
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			return fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case "sqlite":
		if c.DB.SQLitePath == "" {
			return fmt.Errorf("invalid DB config: sqlite path must not be empty")
		}
	default:
		return fmt.Errorf("invalid DB config: unknown driver %q", c.DB.Driver)
	}

	if c.Booking.OperationTimeout <= 0 {
		return fmt.Errorf("invalid booking config: timeout must be positive")
	}
	if _, err := c.Booking.Offsets(); err != nil {
		return err
	}
	if c.Server.MaxRequestsPerMin < 0 {
		return fmt.Errorf("invalid server config: MAX_REQUESTS_PER_MIN must not be negative")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Offsets разбирает REMINDER_OFFSETS ("24h,2h"). Пустая строка отключает напоминания.
func (b BookingConfig) Offsets() ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range splitList(b.ReminderOffsets) {
		d, err := time.ParseDuration(part)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid reminder offset %q", part)
		}
		out = append(out, d)
	}
	return out, nil
}

func (s ServerConfig) AllowedOrigins() []string {
	return splitList(s.CORSOrigins)
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
