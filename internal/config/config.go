// Package config loads the service configuration from defaults, an optional
// YAML file and POKEDEX_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/pokedex-web/pkg/aggregate"
	"github.com/Sternrassler/pokedex-web/pkg/client"
	"github.com/Sternrassler/pokedex-web/pkg/logging"
	"github.com/Sternrassler/pokedex-web/pkg/viewstate"
)

// Version is the service version reported by the CLI and the User-Agent.
const Version = "0.1.0"

// View state backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Aggregate AggregateConfig `yaml:"aggregate"`
	ViewState ViewStateConfig `yaml:"view_state"`
	Log       LogConfig       `yaml:"log"`
	Site      SiteConfig      `yaml:"site"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// UpstreamConfig configures the PokeAPI client.
type UpstreamConfig struct {
	BaseURL   string `yaml:"base_url"`
	UserAgent string `yaml:"user_agent"`
	// Timeout bounds a whole upstream request; 0 disables it.
	Timeout time.Duration `yaml:"timeout"`
}

// AggregateConfig configures list caps and fan-out.
type AggregateConfig struct {
	InitialPageSize int           `yaml:"initial_page_size"`
	PageSize        int           `yaml:"page_size"`
	TypeListingCap  int           `yaml:"type_listing_cap"`
	RelatedCap      int           `yaml:"related_cap"`
	MoveCap         int           `yaml:"move_cap"`
	MaxConcurrency  int           `yaml:"max_concurrency"`
	ItemTimeout     time.Duration `yaml:"item_timeout"`
	Language        string        `yaml:"language"`
}

// ViewStateConfig selects where per-visitor state lives.
type ViewStateConfig struct {
	Backend  string        `yaml:"backend"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// SiteConfig describes the public site.
type SiteConfig struct {
	// URL is the public base URL used in the sitemap.
	URL string `yaml:"url"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	agg := aggregate.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL:   client.DefaultBaseURL,
			UserAgent: "pokedex-web/" + Version,
			Timeout:   0,
		},
		Aggregate: AggregateConfig{
			InitialPageSize: agg.InitialPageSize,
			PageSize:        agg.PageSize,
			TypeListingCap:  agg.TypeListingCap,
			RelatedCap:      agg.RelatedCap,
			MoveCap:         agg.MoveCap,
			MaxConcurrency:  agg.MaxConcurrency,
			ItemTimeout:     agg.ItemTimeout,
			Language:        agg.Language,
		},
		ViewState: ViewStateConfig{
			Backend: BackendMemory,
			TTL:     viewstate.DefaultTTL,
		},
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
		Site: SiteConfig{
			URL: "http://localhost:8080",
		},
	}
}

// Load reads path over the defaults, applies the environment and validates
// the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(bytes.NewReader(b), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from POKEDEX_* variables read through getenv.
// Setting POKEDEX_REDIS_URL without POKEDEX_VIEWSTATE_BACKEND selects the
// redis backend.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var errs []error
	dur := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("POKEDEX_ADDR", &c.Server.Addr)
	str("POKEDEX_API_BASE_URL", &c.Upstream.BaseURL)
	str("POKEDEX_USER_AGENT", &c.Upstream.UserAgent)
	dur("POKEDEX_UPSTREAM_TIMEOUT", &c.Upstream.Timeout)
	num("POKEDEX_MAX_CONCURRENCY", &c.Aggregate.MaxConcurrency)
	dur("POKEDEX_ITEM_TIMEOUT", &c.Aggregate.ItemTimeout)
	str("POKEDEX_REDIS_URL", &c.ViewState.RedisURL)
	if strings.TrimSpace(getenv("POKEDEX_REDIS_URL")) != "" && strings.TrimSpace(getenv("POKEDEX_VIEWSTATE_BACKEND")) == "" {
		c.ViewState.Backend = BackendRedis
	}
	str("POKEDEX_VIEWSTATE_BACKEND", &c.ViewState.Backend)
	dur("POKEDEX_VIEWSTATE_TTL", &c.ViewState.TTL)
	str("POKEDEX_LOG_LEVEL", &c.Log.Level)
	flag("POKEDEX_LOG_PRETTY", &c.Log.Pretty)
	str("POKEDEX_SITE_URL", &c.Site.URL)

	return errors.Join(errs...)
}

// Validate checks the configuration and reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be >= 0 (got %s)", c.Server.ShutdownTimeout))
	}

	if err := checkURL("upstream.base_url", c.Upstream.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Upstream.UserAgent) == "" {
		errs = append(errs, errors.New("upstream.user_agent is required"))
	}
	if c.Upstream.Timeout < 0 {
		errs = append(errs, fmt.Errorf("upstream.timeout must be >= 0 (got %s)", c.Upstream.Timeout))
	}

	if err := c.AggregatorConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("aggregate: %w", err))
	}

	switch c.ViewState.Backend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.ViewState.RedisURL) == "" {
			errs = append(errs, errors.New("view_state.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("view_state.backend must be %q or %q (got %q)", BackendMemory, BackendRedis, c.ViewState.Backend))
	}
	if c.ViewState.TTL < 0 {
		errs = append(errs, fmt.Errorf("view_state.ttl must be >= 0 (got %s)", c.ViewState.TTL))
	}

	if err := checkURL("site.url", c.Site.URL); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ClientConfig maps the upstream section onto the HTTP client configuration.
func (c Config) ClientConfig() client.Config {
	cc := client.DefaultConfig(c.Upstream.UserAgent)
	cc.BaseURL = c.Upstream.BaseURL
	cc.Timeout = c.Upstream.Timeout
	return cc
}

// AggregatorConfig maps the aggregate section onto the aggregator configuration.
func (c Config) AggregatorConfig() aggregate.Config {
	return aggregate.Config{
		InitialPageSize: c.Aggregate.InitialPageSize,
		PageSize:        c.Aggregate.PageSize,
		TypeListingCap:  c.Aggregate.TypeListingCap,
		RelatedCap:      c.Aggregate.RelatedCap,
		MoveCap:         c.Aggregate.MoveCap,
		MaxConcurrency:  c.Aggregate.MaxConcurrency,
		ItemTimeout:     c.Aggregate.ItemTimeout,
		Language:        c.Aggregate.Language,
	}
}

// LoggingConfig maps the log section onto the logger configuration.
func (c Config) LoggingConfig(out io.Writer) logging.Config {
	return logging.Config{
		Level:  logging.ParseLevel(c.Log.Level),
		Pretty: c.Log.Pretty,
		Output: out,
	}
}

func checkURL(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) url (got %q)", field, raw)
	}
	return nil
}
