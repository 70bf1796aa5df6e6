// Package config loads runtime settings from defaults, an optional YAML file
// and FMAC_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr      string         `mapstructure:"addr"`
	DB        DBConfig       `mapstructure:"db"`
	Store     StoreConfig    `mapstructure:"store"`
	Redis     RedisConfig    `mapstructure:"redis"`
	JWT       JWTConfig      `mapstructure:"jwt"`
	Minio     MinioConfig    `mapstructure:"minio"`
	Notify    NotifyConfig   `mapstructure:"notify"`
	Sessions  SessionsConfig `mapstructure:"sessions"`
	Bootstrap bool           `mapstructure:"bootstrap"`
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
}

type StoreConfig struct {
	Backend   string        `mapstructure:"backend"`
	Timeout   time.Duration `mapstructure:"timeout"`
	BatchSize int           `mapstructure:"batch_size"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type JWTConfig struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type NotifyConfig struct {
	// Redis publishes notifications on Channel when a redis URL is set.
	Redis         bool          `mapstructure:"redis"`
	Channel       string        `mapstructure:"channel"`
	EffectTimeout time.Duration `mapstructure:"effect_timeout"`
}

type SessionsConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	ProfileTTL time.Duration `mapstructure:"profile_ttl"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"

	BackendGorm  = "gorm"
	BackendRedis = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8008")
	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.dsn", "fmac-task.db")
	v.SetDefault("db.log_level", "warn")
	v.SetDefault("store.backend", BackendGorm)
	v.SetDefault("store.timeout", 10*time.Second)
	v.SetDefault("store.batch_size", 500)
	v.SetDefault("redis.url", "")
	v.SetDefault("jwt.secret", "development-insecure-secret-change-me")
	v.SetDefault("jwt.issuer", "fmac-task")
	v.SetDefault("jwt.audience", "fmac-task-clients")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "attachments")
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("notify.redis", false)
	v.SetDefault("notify.channel", "fmac:notifications")
	v.SetDefault("notify.effect_timeout", 10*time.Second)
	v.SetDefault("sessions.ttl", 30*time.Minute)
	v.SetDefault("sessions.profile_ttl", time.Minute)
	v.SetDefault("bootstrap", true)
}

// New returns a viper instance with defaults and environment binding, ready
// for flags to be bound into it.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("FMAC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("db.dsn", "FMAC_DATABASE_URL", "FMAC_DB_DSN")
	_ = v.BindEnv("store.batch_size", "FMAC_BATCH_SIZE", "FMAC_STORE_BATCH_SIZE")
	return v
}

// Load reads path (if non-empty) into a fresh viper instance.
func Load(path string) (Config, error) {
	return LoadFrom(New(), path)
}

// LoadFrom reads path into v and decodes the result.
func LoadFrom(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("config: unknown db driver %q", c.DB.Driver)
	}
	switch c.Store.Backend {
	case BackendGorm:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("config: store backend redis needs redis.url")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("config: store.timeout must be positive")
	}
	if c.Store.BatchSize <= 0 {
		return fmt.Errorf("config: store.batch_size must be positive")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("config: jwt.secret is required")
	}
	if c.Notify.Redis && c.Redis.URL == "" {
		return fmt.Errorf("config: notify.redis needs redis.url")
	}
	return nil
}
