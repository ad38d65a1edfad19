// Package config loads the service configuration from YAML plus environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Storage  StorageConfig  `yaml:"storage"`
	Pilot    PilotConfig    `yaml:"pilot"`
	Payment  PaymentConfig  `yaml:"payment"`
	Market   MarketConfig   `yaml:"market"`
	Matching MatchingConfig `yaml:"matching"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Address      string `yaml:"address"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`

	// AdminKey gates the pilot admin routes. Empty disables them.
	AdminKey string `yaml:"admin_key"`
}

type DataConfig struct {
	Dir             string   `yaml:"dir"`
	CatalogPaths    []string `yaml:"catalog_paths"`
	CUBPath         string   `yaml:"cub_path"`
	MarketCachePath string   `yaml:"market_cache_path"`
	PaymentsPath    string   `yaml:"payments_path"`
	PilotPath       string   `yaml:"pilot_path"`
	PilotEventsPath string   `yaml:"pilot_events_path"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend"` // json or sqlite
	SQLitePath string `yaml:"sqlite_path"`
}

type PilotConfig struct {
	Duration string `yaml:"duration"`
	CPFSalt  string `yaml:"cpf_salt"`
}

type PaymentConfig struct {
	CheckoutURL string `yaml:"checkout_url"`
	PriceCents  int    `yaml:"price_cents"`
}

type MarketConfig struct {
	ExternalEnabled bool   `yaml:"external_enabled"`
	Endpoint        string `yaml:"endpoint"`
	Timeout         string `yaml:"timeout"`
	CacheTTL        string `yaml:"cache_ttl"`
	FailureCooldown string `yaml:"failure_cooldown"`
	CacheBackend    string `yaml:"cache_backend"` // file or redis
	RedisAddr       string `yaml:"redis_addr"`
	RedisPrefix     string `yaml:"redis_prefix"`
}

type MatchingConfig struct {
	PolicyPath string `yaml:"policy_path"`
}

type LoggingConfig struct {
	Mode    string `yaml:"mode"`
	Verbose bool   `yaml:"verbose"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:      "127.0.0.1:5000",
			MaxBodyBytes: 1 << 20,
		},
		Data: DataConfig{Dir: "data"},
		Storage: StorageConfig{
			Backend: "json",
		},
		Pilot: PilotConfig{
			Duration: "48h",
			CPFSalt:  "lokao-piloto-v1",
		},
		Payment: PaymentConfig{
			CheckoutURL: "https://mpago.la/1DucMHZ",
			PriceCents:  3990,
		},
		Market: MarketConfig{
			ExternalEnabled: false,
			Timeout:         "4s",
			CacheTTL:        "168h",
			FailureCooldown: "6h",
			CacheBackend:    "file",
			RedisPrefix:     "lokao:m2:",
		},
		Logging: LoggingConfig{Mode: "dev"},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides, derives file paths from the data dir and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	cfg.fillPaths()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := env("LOKAO_DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := env("LOKAO_CPF_SALT"); v != "" {
		c.Pilot.CPFSalt = v
	}
	if v := env("LOKAO_METRICAS_KEY"); v != "" {
		c.Server.AdminKey = v
	}
	host, port := env("LOKAO_HOST"), env("LOKAO_PORT")
	if host != "" || port != "" {
		h, p, _ := strings.Cut(c.Server.Address, ":")
		if host != "" {
			h = host
		}
		if port != "" {
			p = port
		}
		c.Server.Address = h + ":" + p
	}
	if v := env("LOKAO_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := env("LOKAO_MARKET_EXTERNAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Market.ExternalEnabled = b
		}
	}
	if v := env("REDIS_ADDR"); v != "" {
		c.Market.RedisAddr = v
		c.Market.CacheBackend = "redis"
	}
	if v := env("LOG_MODE"); v != "" {
		c.Logging.Mode = v
	}
}

func (c *Config) fillPaths() {
	dir := c.Data.Dir
	def := func(p *string, name string) {
		if *p == "" {
			*p = filepath.Join(dir, name)
		}
	}
	if len(c.Data.CatalogPaths) == 0 {
		c.Data.CatalogPaths = []string{
			filepath.Join(dir, "bairros_cuiaba.csv"),
			filepath.Join(dir, "bairros.csv"),
			"bairros_cuiaba.csv",
			"bairros.csv",
		}
	}
	def(&c.Data.CUBPath, "cub_cuiaba.json")
	def(&c.Data.MarketCachePath, "mercado_m2_cache.json")
	def(&c.Data.PaymentsPath, "pagamentos_mp.json")
	def(&c.Data.PilotPath, "piloto_teste.json")
	def(&c.Data.PilotEventsPath, "piloto_eventos.jsonl")
	def(&c.Storage.SQLitePath, "lokao.db")
}

// Validate checks enum fields and duration strings.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case "json", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("storage.backend: unknown %q", c.Storage.Backend))
	}
	switch c.Market.CacheBackend {
	case "file":
	case "redis":
		if c.Market.RedisAddr == "" {
			errs = append(errs, errors.New("market.redis_addr is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("market.cache_backend: unknown %q", c.Market.CacheBackend))
	}
	for name, v := range map[string]string{
		"pilot.duration":          c.Pilot.Duration,
		"market.timeout":          c.Market.Timeout,
		"market.cache_ttl":        c.Market.CacheTTL,
		"market.failure_cooldown": c.Market.FailureCooldown,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Market.ExternalEnabled && c.Market.Endpoint == "" {
		errs = append(errs, errors.New("market.endpoint is required when external lookups are enabled"))
	}
	return errors.Join(errs...)
}

func (c PilotConfig) WindowDuration() time.Duration { return mustDuration(c.Duration, 48*time.Hour) }

func (c MarketConfig) TimeoutDuration() time.Duration { return mustDuration(c.Timeout, 4*time.Second) }

func (c MarketConfig) CacheTTLDuration() time.Duration { return mustDuration(c.CacheTTL, 168*time.Hour) }

func (c MarketConfig) FailureCooldownDuration() time.Duration {
	return mustDuration(c.FailureCooldown, 6*time.Hour)
}

func mustDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
