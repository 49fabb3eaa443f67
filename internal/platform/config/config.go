package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config aggregates everything cmd/ binaries need to wire the service.
type Config struct {
	Server    Server
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Dashboard DashboardConfig
	LogLevel  string
	// Location is the clinic's zone; appointment dates and times in
	// requests are read in it.
	Location *time.Location
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr string
	// SecretKey signs staff bearer tokens.
	SecretKey    string
	AuthDisabled bool
	// RequestTimeout bounds every API request.
	RequestTimeout time.Duration
}

// DatabaseConfig points at PostgreSQL. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the optional dashboard cache. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit stream. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// DashboardConfig tunes the summary cache.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// DefaultSecretKey is only acceptable for local development.
const DefaultSecretKey = "dev-secret-key-change-in-production"

// Load reads defaults, then an optional dotenv file, then the environment.
// envFile may be empty; a missing file is not an error.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	cfg := &Config{
		LogLevel: v.GetString("LOG_LEVEL"),
		Server: Server{
			Addr:           v.GetString("ADDR"),
			SecretKey:      v.GetString("SECRET_KEY"),
			AuthDisabled:   v.GetBool("AUTH_DISABLED"),
			RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(v.GetString("KAFKA_BROKERS")),
			AuditTopic: v.GetString("KAFKA_AUDIT_TOPIC"),
		},
		Dashboard: DashboardConfig{
			CacheTTL: v.GetDuration("DASHBOARD_CACHE_TTL"),
		},
	}
	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	cfg.Location = loc
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":5000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TIMEZONE", "UTC")
	v.SetDefault("SECRET_KEY", DefaultSecretKey)
	v.SetDefault("AUTH_DISABLED", false)
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300*time.Second)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_AUDIT_TOPIC", "clinic.audit")

	v.SetDefault("DASHBOARD_CACHE_TTL", 15*time.Second)
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return errors.New("ADDR must not be empty")
	}
	if c.Server.SecretKey == "" && !c.Server.AuthDisabled {
		return errors.New("SECRET_KEY is required unless AUTH_DISABLED=true")
	}
	if c.Dashboard.CacheTTL < 0 {
		return errors.New("DASHBOARD_CACHE_TTL must not be negative")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic == "" {
		return errors.New("KAFKA_AUDIT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// UsesDefaultSecret reports whether the development signing key is active.
func (c *Config) UsesDefaultSecret() bool {
	return c.Server.SecretKey == DefaultSecretKey
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
