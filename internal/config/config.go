package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		PublicURL   string   `yaml:"public_url"`
		CORSOrigins []string `yaml:"cors_origins"`
		Timezone    string   `yaml:"timezone"`
	} `yaml:"server"`
	Auth struct {
		GoogleClientID     string `yaml:"google_client_id"`
		GoogleClientSecret string `yaml:"google_client_secret"`
		GoogleRedirectURL  string `yaml:"google_redirect_url"`
		SessionSecret      string `yaml:"session_secret"`
		CryptoKey          string `yaml:"crypto_key"`
		SessionTTL         string `yaml:"session_ttl"`
		SecureCookies      bool   `yaml:"secure_cookies"`
	} `yaml:"auth"`
	Backend struct {
		BaseURL          string `yaml:"base_url"`
		Timeout          string `yaml:"timeout"`
		LegacyUserHeader *bool  `yaml:"legacy_user_header"`
	} `yaml:"backend"`
	Store struct {
		Driver string `yaml:"driver"`
		TTL    string `yaml:"ttl"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`
	Events struct {
		RabbitURI string `yaml:"rabbit_uri"`
		Exchange  string `yaml:"exchange"`
	} `yaml:"events"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Load reads the YAML config from path and applies environment overrides.
// A missing file is not an error: the service can be configured from the
// environment alone (the lambda deployment does this).
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Server.Port, "PORT")
	setFromEnv(&c.Server.PublicURL, "PUBLIC_URL")
	setFromEnv(&c.Server.Timezone, "DISPLAY_TIMEZONE")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitCSV(v)
	}

	setFromEnv(&c.Auth.GoogleClientID, "GOOGLE_CLIENT_ID")
	setFromEnv(&c.Auth.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	setFromEnv(&c.Auth.GoogleRedirectURL, "GOOGLE_REDIRECT_URL")
	setFromEnv(&c.Auth.SessionSecret, "SESSION_SECRET")
	setFromEnv(&c.Auth.CryptoKey, "CRYPTO_KEY")
	setFromEnv(&c.Auth.SessionTTL, "SESSION_TTL")
	if v, ok := envBool("SECURE_COOKIES"); ok {
		c.Auth.SecureCookies = v
	}

	setFromEnv(&c.Backend.BaseURL, "BACKEND_API_URL")
	setFromEnv(&c.Backend.Timeout, "BACKEND_TIMEOUT")
	if v, ok := envBool("BACKEND_LEGACY_USER_HEADER"); ok {
		c.Backend.LegacyUserHeader = &v
	}

	setFromEnv(&c.Store.Driver, "STORE_DRIVER")
	setFromEnv(&c.Store.TTL, "STORE_TTL")
	setFromEnv(&c.Redis.Addr, "REDIS_ADDR")
	setFromEnv(&c.Redis.Password, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	setFromEnv(&c.Postgres.DSN, "DATABASE_DSN")

	setFromEnv(&c.Events.RabbitURI, "RABBITMQ_URI")
	setFromEnv(&c.Events.Exchange, "RABBITMQ_EXCHANGE")

	setFromEnv(&c.Log.Level, "LOG_LEVEL")
	setFromEnv(&c.Log.Format, "LOG_FORMAT")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.PublicURL == "" {
		c.Server.PublicURL = "http://localhost:" + c.Server.Port
	}
	if c.Auth.GoogleRedirectURL == "" {
		c.Auth.GoogleRedirectURL = strings.TrimRight(c.Server.PublicURL, "/") + "/api/auth/callback/google"
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:8000"
	}
	if c.Backend.LegacyUserHeader == nil {
		legacy := true
		c.Backend.LegacyUserHeader = &legacy
	}
	if c.Store.Driver == "" {
		switch {
		case c.Redis.Addr != "":
			c.Store.Driver = StoreRedis
		case c.Postgres.DSN != "":
			c.Store.Driver = StorePostgres
		default:
			c.Store.Driver = StoreMemory
		}
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = "engmcq.events"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports configuration that would make the service unusable.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.GoogleClientID == "" || c.Auth.GoogleClientSecret == "" {
		errs = append(errs, errors.New("google client id and secret are required"))
	}
	if len(c.Auth.SessionSecret) < 32 {
		errs = append(errs, errors.New("session secret must be at least 32 bytes"))
	}
	if len(c.Auth.CryptoKey) != 32 {
		errs = append(errs, errors.New("crypto key must be 32 bytes"))
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis store requires redis.addr"))
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres store requires postgres.dsn"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	return errors.Join(errs...)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envBool(key string) (bool, bool) {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes", "YES":
		return true, true
	case "0", "false", "FALSE", "no", "NO":
		return false, true
	default:
		return false, false
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
