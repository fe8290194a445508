package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variables override file values, e.g. PASSGATE_SESSION_SECRET.
const envPrefix = "PASSGATE"

// Config holds every tunable of the process.
type Config struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`

	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Session SessionConfig `mapstructure:"session"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Limit   LimitConfig   `mapstructure:"throttle"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console | json
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type SessionConfig struct {
	Name   string        `mapstructure:"name"`
	Secret string        `mapstructure:"secret"`
	MaxAge time.Duration `mapstructure:"max_age"`
	Secure bool          `mapstructure:"secure"`
}

type AuthConfig struct {
	BcryptCost  int           `mapstructure:"bcrypt_cost"`
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

// RedisConfig is optional; an empty Addr keeps the throttle in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LimitConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Window      time.Duration `mapstructure:"window"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

const (
	devSessionSecret = "dev-session-secret-change-me"
	devTokenSecret   = "dev-token-secret-change-me"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("db.path", "users.db")

	v.SetDefault("session.name", "passgate_session")
	v.SetDefault("session.secret", devSessionSecret)
	v.SetDefault("session.max_age", 12*time.Hour)
	v.SetDefault("session.secure", false)

	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.token_secret", devTokenSecret)
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("throttle.max_attempts", 5)
	v.SetDefault("throttle.window", 15*time.Minute)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
}

// Load reads configs/config.yml (if any) under the given search paths, applies
// PASSGATE_* environment overrides and validates the result. A .env file in the
// working directory is loaded into the environment first.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects development secrets in release mode and nonsensical limits.
func (c *Config) Validate() error {
	if c.Session.MaxAge <= 0 {
		return errors.New("session.max_age must be positive")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	if c.Limit.MaxAttempts < 0 {
		return errors.New("throttle.max_attempts must not be negative")
	}
	if c.GinMode == "release" {
		if c.Session.Secret == "" || c.Session.Secret == devSessionSecret {
			return errors.New("session.secret is required in release mode")
		}
		if c.Auth.TokenSecret == "" || c.Auth.TokenSecret == devTokenSecret {
			return errors.New("auth.token_secret is required in release mode")
		}
	}
	return nil
}
