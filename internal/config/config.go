package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultJWTSecret = "trading-nft-secret-key-change-in-production"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Throttle ThrottleConfig `yaml:"throttle"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	Mode   string `yaml:"mode"`   // debug, release, test
	Prefix string `yaml:"prefix"` // optional route prefix, e.g. /api
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres, mongodb
	DSN    string `yaml:"dsn"`
	Name   string `yaml:"name"` // database name, mongodb only
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	JWTExpiresIn     string `yaml:"jwt_expires_in"`
	RefreshExpiresIn string `yaml:"refresh_expires_in"`
	TokenSweepCron   string `yaml:"token_sweep_cron"` // sql drivers only
}

// ThrottleConfig holds both the global per-IP limiter and the per-email
// login throttle. TTL values are in seconds.
type ThrottleConfig struct {
	TTL        int `yaml:"ttl"`
	Limit      int `yaml:"limit"`
	LoginTTL   int `yaml:"login_ttl"`
	LoginLimit int `yaml:"login_limit"`
}

// RedisConfig backs the login throttle counters and the async task queue.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	cfg.overrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "3000",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "trading-nft.db",
			Name:   "trading-nft",
		},
		Auth: AuthConfig{
			JWTSecret:        defaultJWTSecret,
			JWTExpiresIn:     "1h",
			RefreshExpiresIn: "7d",
			TokenSweepCron:   "@every 1h",
		},
		Throttle: ThrottleConfig{
			TTL:        60,
			Limit:      100,
			LoginTTL:   300,
			LoginLimit: 5,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate rejects configurations the auth flow cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if _, err := c.Auth.AccessTTL(); err != nil {
		return fmt.Errorf("auth.jwt_expires_in: %w", err)
	}
	if _, err := c.Auth.RefreshTTL(); err != nil {
		return fmt.Errorf("auth.refresh_expires_in: %w", err)
	}
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres", "mongodb":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Throttle.LoginLimit <= 0 || c.Throttle.LoginTTL <= 0 {
		return errors.New("throttle.login_limit and throttle.login_ttl must be positive")
	}
	if c.Throttle.Limit <= 0 || c.Throttle.TTL <= 0 {
		return errors.New("throttle.limit and throttle.ttl must be positive")
	}
	return nil
}

// UsesDefaultSecret reports whether the built-in development secret is active.
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == defaultJWTSecret
}

func (a AuthConfig) AccessTTL() (time.Duration, error) {
	return ParseDuration(a.JWTExpiresIn)
}

func (a AuthConfig) RefreshTTL() (time.Duration, error) {
	return ParseDuration(a.RefreshExpiresIn)
}

func (t ThrottleConfig) Window() time.Duration {
	return time.Duration(t.TTL) * time.Second
}

func (t ThrottleConfig) LoginWindow() time.Duration {
	return time.Duration(t.LoginTTL) * time.Second
}

// ParseDuration accepts Go durations ("90m"), a day suffix ("7d") and bare
// numbers, which are read as seconds. The result must be positive.
func ParseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty duration")
	}

	var d time.Duration
	switch {
	case strings.HasSuffix(value, "d"):
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		d = time.Duration(days) * 24 * time.Hour
	case isDigits(value):
		secs, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		d = time.Duration(secs) * time.Second
	default:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", value)
		}
		d = parsed
	}

	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", value)
	}
	return d, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if prefix := os.Getenv("APP_PREFIX"); prefix != "" {
		c.Server.Prefix = prefix
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		c.Database.Driver = "mongodb"
		c.Database.DSN = uri
		if name := mongoDatabaseName(uri); name != "" {
			c.Database.Name = name
		}
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if expires := os.Getenv("JWT_EXPIRES_IN"); expires != "" {
		c.Auth.JWTExpiresIn = expires
	}
	if expires := os.Getenv("JWT_REFRESH_EXPIRES_IN"); expires != "" {
		c.Auth.RefreshExpiresIn = expires
	}
	if spec := os.Getenv("TOKEN_SWEEP_CRON"); spec != "" {
		c.Auth.TokenSweepCron = spec
	}
	setIntFromEnv("THROTTLE_TTL", &c.Throttle.TTL)
	setIntFromEnv("THROTTLE_LIMIT", &c.Throttle.Limit)
	setIntFromEnv("LOGIN_THROTTLE_TTL", &c.Throttle.LoginTTL)
	setIntFromEnv("LOGIN_THROTTLE_LIMIT", &c.Throttle.LoginLimit)

	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Enabled = true
		port := os.Getenv("REDIS_PORT")
		if port == "" {
			port = "6379"
		}
		c.Redis.Addr = host + ":" + port
		setIntFromEnv("REDIS_DB", &c.Redis.DB)
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if dir := os.Getenv("LOG_DIR"); dir != "" {
		c.Log.Dir = dir
	}
}

func setIntFromEnv(key string, target *int) {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			*target = v
		}
	}
}

func mongoDatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	rest := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.LastIndex(rest, "@"); atIdx != -1 {
		authPart := rest[:atIdx]
		rest = rest[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(rest, "/"); slashIdx != -1 {
		dbStr := rest[slashIdx+1:]
		rest = rest[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = rest
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
