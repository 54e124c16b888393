// internal/config/config.go
//
// Service configuration.
// Sources, later ones winning:
//  1. assets/defaults.yaml (embedded)
//  2. YAML file named by DEXSCOPE_CONFIG, if set
//  3. environment variables (a .env file is loaded first by godotenv)

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/dexscope/assets"
)

// Config holds all configuration for the service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	PokeAPI PokeAPIConfig `yaml:"pokeapi"`
	Quiz    QuizConfig    `yaml:"quiz"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           int           `yaml:"port"`
	ClientOrigin   string        `yaml:"clientOrigin"`
	Production     bool          `yaml:"production"`
	HandlerTimeout time.Duration `yaml:"handlerTimeout"`
}

// PokeAPIConfig configures the upstream species provider.
type PokeAPIConfig struct {
	BaseURL      string        `yaml:"baseUrl"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"maxAttempts"`
	StrictFilter bool          `yaml:"strictFilter"`
}

// QuizConfig tunes round selection and guess feedback.
type QuizConfig struct {
	StrongMinBST  int           `yaml:"strongMinBst"`
	LookupTimeout time.Duration `yaml:"lookupTimeout"`
	DailySalt     string        `yaml:"dailySalt"`
}

// SessionConfig controls session tokens and idle eviction.
type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
	CookieName    string        `yaml:"cookieName"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads .env, the embedded defaults, the optional overlay file and the
// environment, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	raw, err := assets.Defaults()
	if err != nil {
		return nil, fmt.Errorf("read embedded defaults: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}

	if path := os.Getenv("DEXSCOPE_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// overlayFile decodes path on top of the current values; keys missing from
// the file keep their previous value.
func (c *Config) overlayFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Server.ClientOrigin = getEnv("CLIENT_ORIGIN", c.Server.ClientOrigin)
	if v, ok := os.LookupEnv("NODE_ENV"); ok {
		c.Server.Production = v == "production"
	}

	c.PokeAPI.BaseURL = getEnv("POKEAPI_BASE_URL", c.PokeAPI.BaseURL)
	c.PokeAPI.Timeout = getEnvAsDuration("POKEAPI_TIMEOUT", c.PokeAPI.Timeout)
	c.PokeAPI.MaxAttempts = getEnvAsInt("FETCH_MAX_ATTEMPTS", c.PokeAPI.MaxAttempts)
	c.PokeAPI.StrictFilter = getEnvAsBool("STRICT_FILTER", c.PokeAPI.StrictFilter)

	c.Quiz.StrongMinBST = getEnvAsInt("STRONG_MIN_BST", c.Quiz.StrongMinBST)
	c.Quiz.LookupTimeout = getEnvAsDuration("LOOKUP_TIMEOUT", c.Quiz.LookupTimeout)
	c.Quiz.DailySalt = getEnv("DAILY_SALT", c.Quiz.DailySalt)

	c.Session.Secret = getEnv("SESSION_SECRET", c.Session.Secret)
	c.Session.TTL = getEnvAsDuration("SESSION_TTL", c.Session.TTL)
	c.Session.SweepInterval = getEnvAsDuration("SESSION_SWEEP_INTERVAL", c.Session.SweepInterval)
	c.Session.CookieName = getEnv("COOKIE_NAME", c.Session.CookieName)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvAsBool("LOG_PRETTY", c.Log.Pretty)
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.PokeAPI.BaseURL) == "" {
		return errors.New("pokeapi base URL is required")
	}
	if c.PokeAPI.MaxAttempts <= 0 {
		return fmt.Errorf("fetch attempt budget must be positive: %d", c.PokeAPI.MaxAttempts)
	}
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"server handler timeout", c.Server.HandlerTimeout},
		{"pokeapi timeout", c.PokeAPI.Timeout},
		{"lookup timeout", c.Quiz.LookupTimeout},
		{"session ttl", c.Session.TTL},
		{"session sweep interval", c.Session.SweepInterval},
	} {
		if d.v <= 0 {
			return fmt.Errorf("%s must be positive: %s", d.name, d.v)
		}
	}
	if c.Session.Secret == "" {
		return errors.New("session secret is required")
	}
	if c.Session.CookieName == "" {
		return errors.New("cookie name is required")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Server.Port) }

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvAsBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvAsDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
