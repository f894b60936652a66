package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// SDK modes
const (
	ModeSandbox = "sandbox"
	ModeLive    = "live"
)

// REST endpoints per mode
const (
	SandboxEndpoint = "https://api.sandbox.paypal.com"
	LiveEndpoint    = "https://api.paypal.com"
)

// token cache backends
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Duration is a duration in its string representation, i.e. "30s"
type Duration string

// Duration parses the duration. An empty string is a zero duration.
func (d Duration) Duration() (time.Duration, error) {
	if d == "" {
		return 0, nil
	}
	return time.ParseDuration(string(d))
}

// Config represents a full configuration for the SDK and its tools
type Config struct {
	// Mode is either sandbox or live
	Mode string `json:"mode" yaml:"mode" env:"PAYPAL_MODE"`
	// Endpoint overrides the endpoint derived from the mode
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"PAYPAL_ENDPOINT"`

	Credentials struct {
		ClientID     string `json:"clientId" yaml:"client_id" env:"PAYPAL_CLIENT_ID"`
		ClientSecret string `json:"clientSecret" yaml:"client_secret" env:"PAYPAL_CLIENT_SECRET"`
	} `json:"credentials" yaml:"credentials"`

	HTTP struct {
		// Timeout per request attempt
		Timeout Duration `json:"timeout" yaml:"timeout" env:"PAYPAL_HTTP_TIMEOUT"`
		// Retry is the number of additional attempts on connection failures and
		// gateway errors
		Retry     int    `json:"retry" yaml:"retry" env:"PAYPAL_HTTP_RETRY"`
		UserAgent string `json:"userAgent,omitempty" yaml:"user_agent,omitempty" env:"PAYPAL_USER_AGENT"`
	} `json:"http" yaml:"http"`

	Log struct {
		Level string `json:"level" yaml:"level" env:"PAYPAL_LOG_LEVEL"`
	} `json:"log" yaml:"log"`

	Cache struct {
		Enabled bool   `json:"enabled" yaml:"enabled" env:"PAYPAL_CACHE_ENABLED"`
		Backend string `json:"backend" yaml:"backend" env:"PAYPAL_CACHE_BACKEND"`

		Redis struct {
			Address   string `json:"address" yaml:"address" env:"PAYPAL_REDIS_ADDR"`
			Password  string `json:"password,omitempty" yaml:"password,omitempty" env:"PAYPAL_REDIS_PASSWORD"`
			DB        int    `json:"db" yaml:"db" env:"PAYPAL_REDIS_DB"`
			KeyPrefix string `json:"keyPrefix" yaml:"key_prefix" env:"PAYPAL_REDIS_KEY_PREFIX"`
		} `json:"redis" yaml:"redis"`
	} `json:"cache" yaml:"cache"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	cfg := Config{}
	cfg.Mode = ModeSandbox
	cfg.HTTP.Timeout = "30s"
	cfg.HTTP.Retry = 1
	cfg.Log.Level = "info"
	cfg.Cache.Enabled = true
	cfg.Cache.Backend = CacheMemory
	cfg.Cache.Redis.Address = "localhost:6379"
	cfg.Cache.Redis.KeyPrefix = "paypal:token:"

	return cfg
}

// BaseURL returns the REST endpoint without trailing slash
func (c Config) BaseURL() string {
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/")
	}
	if strings.EqualFold(c.Mode, ModeLive) {
		return LiveEndpoint
	}
	return SandboxEndpoint
}

// Validate returns all problems found in the configuration
func (c Config) Validate() []error {
	var errs []error
	if c.Endpoint == "" && !strings.EqualFold(c.Mode, ModeSandbox) && !strings.EqualFold(c.Mode, ModeLive) {
		errs = append(errs, fmt.Errorf("mode %q is neither %s nor %s", c.Mode, ModeSandbox, ModeLive))
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid endpoint: %v", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Errorf("endpoint %s must be an http(s) URL", c.Endpoint))
		}
	}
	if c.Credentials.ClientID == "" {
		errs = append(errs, errors.New("credentials.clientId is empty"))
	}
	if c.Credentials.ClientSecret == "" {
		errs = append(errs, errors.New("credentials.clientSecret is empty"))
	}
	if d, err := c.HTTP.Timeout.Duration(); err != nil {
		errs = append(errs, fmt.Errorf("invalid http.timeout: %v", err))
	} else if d < 0 {
		errs = append(errs, errors.New("http.timeout must not be negative"))
	}
	if c.HTTP.Retry < 0 {
		errs = append(errs, errors.New("http.retry must not be negative"))
	}
	if c.Cache.Enabled && c.Cache.Backend != CacheMemory && c.Cache.Backend != CacheRedis {
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	if c.Cache.Enabled && c.Cache.Backend == CacheRedis && c.Cache.Redis.Address == "" {
		errs = append(errs, errors.New("cache.redis.address is empty"))
	}
	return errs
}

// ReadConfig reads the JSON from the given reader into a new Config
//
// Members missing in the JSON keep their default value.
func ReadConfig(r io.Reader) (Config, error) {
	dec := json.NewDecoder(r)
	cfg := DefaultConfig()
	err := dec.Decode(&cfg)
	return cfg, err
}

// ReadYAMLConfig reads YAML from the given reader into a new Config
func ReadYAMLConfig(r io.Reader) (Config, error) {
	dec := yaml.NewDecoder(r)
	cfg := DefaultConfig()
	err := dec.Decode(&cfg)
	return cfg, err
}

// ReadConfigFile reads the named file. Files ending in .yml or .yaml are read as
// YAML, everything else as JSON.
func ReadConfigFile(name string) (Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		return ReadYAMLConfig(f)
	default:
		return ReadConfig(f)
	}
}

// WriteConfig will write the given config to the given Writer as JSON (pretty printed)
func WriteConfig(w io.Writer, cfg Config) error {
	jsonBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(jsonBytes)
	return err
}

// ApplyEnv overrides the config with the PAYPAL_* environment variables which are set
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config env: %w", err)
	}
	return nil
}

// FromEnv returns the default config with environment overrides applied
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	err := ApplyEnv(&cfg)
	return cfg, err
}
