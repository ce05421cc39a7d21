// Package config loads service settings from defaults, an optional YAML
// file and the environment, in that order of precedence (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no explicit path is given and it exists.
const DefaultFile = "mermaidviz.yaml"

// Providers.
const (
	ProviderNeobase = "neobase"
	ProviderOpenAI  = "openai"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// CacheConfig selects where answers are cached.
type CacheConfig struct {
	Backend string        `yaml:"backend" mapstructure:"backend"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Prefix  string        `yaml:"prefix" mapstructure:"prefix"`
}

// RedisConfig holds connection settings for the redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// Config is the full service configuration.
type Config struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	LogLevel     string        `yaml:"log_level" mapstructure:"log_level"`
	LogFormat    string        `yaml:"log_format" mapstructure:"log_format"`
	Provider     string        `yaml:"provider" mapstructure:"provider"`
	APIURL       string        `yaml:"api_url" mapstructure:"api_url"`
	APIKey       string        `yaml:"api_key" mapstructure:"api_key"`
	Model        string        `yaml:"model" mapstructure:"model"`
	User         string        `yaml:"user" mapstructure:"user"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxInputSize int           `yaml:"max_input_size" mapstructure:"max_input_size"`
	StripFences  bool          `yaml:"strip_fences" mapstructure:"strip_fences"`
	MermaidJSURL string        `yaml:"mermaid_js_url" mapstructure:"mermaid_js_url"`
	WatchFile    string        `yaml:"watch_file" mapstructure:"watch_file"`
	Cache        CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Redis        RedisConfig   `yaml:"redis" mapstructure:"redis"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:         ":3000",
		LogLevel:     "info",
		LogFormat:    "json",
		Provider:     ProviderNeobase,
		User:         "mermaid_converter",
		Timeout:      120 * time.Second,
		MaxInputSize: 4096,
		MermaidJSURL: "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js",
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     time.Hour,
			Prefix:  "mermaidviz:",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}
}

// envKeys maps environment variables to configuration paths.
var envKeys = map[string][]string{
	"MERMAIDVIZ_ADDR":           {"addr"},
	"MERMAIDVIZ_LOG_LEVEL":      {"log_level"},
	"MERMAIDVIZ_LOG_FORMAT":     {"log_format"},
	"MERMAIDVIZ_PROVIDER":       {"provider"},
	"MERMAIDVIZ_API_URL":        {"api_url"},
	"MERMAIDVIZ_API_KEY":        {"api_key"},
	"MERMAIDVIZ_MODEL":          {"model"},
	"MERMAIDVIZ_USER":           {"user"},
	"MERMAIDVIZ_TIMEOUT":        {"timeout"},
	"MERMAIDVIZ_MAX_INPUT_SIZE": {"max_input_size"},
	"MERMAIDVIZ_STRIP_FENCES":   {"strip_fences"},
	"MERMAIDVIZ_MERMAID_JS_URL": {"mermaid_js_url"},
	"MERMAIDVIZ_WATCH_FILE":     {"watch_file"},
	"MERMAIDVIZ_CACHE_BACKEND":  {"cache", "backend"},
	"MERMAIDVIZ_CACHE_TTL":      {"cache", "ttl"},
	"MERMAIDVIZ_CACHE_PREFIX":   {"cache", "prefix"},
	"MERMAIDVIZ_REDIS_ADDR":     {"redis", "addr"},
	"MERMAIDVIZ_REDIS_PASSWORD": {"redis", "password"},
	"MERMAIDVIZ_REDIS_DB":       {"redis", "db"},
	// Kept for parity with existing deployments.
	"NEOBASE_API_KEY": {"api_key"},
}

// Load builds the configuration. An empty path reads DefaultFile if present;
// an explicit path must exist.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := decode(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("invalid config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	env := map[string]any{}
	// MERMAIDVIZ_API_KEY wins over NEOBASE_API_KEY.
	if v, ok := lookup("NEOBASE_API_KEY"); ok && v != "" {
		setPath(env, envKeys["NEOBASE_API_KEY"], v)
	}
	for name, keys := range envKeys {
		if name == "NEOBASE_API_KEY" {
			continue
		}
		if v, ok := lookup(name); ok && v != "" {
			setPath(env, keys, v)
		}
	}
	if err := decode(env, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid environment: %w", err)
	}

	return cfg, nil
}

// decode overlays raw onto cfg; keys absent from raw keep their current values.
func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func setPath(m map[string]any, keys []string, v any) {
	for _, k := range keys[:len(keys)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[k] = next
		}
		m = next
	}
	m[keys[len(keys)-1]] = v
}

// Validate reports settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	switch c.Provider {
	case ProviderNeobase:
		if c.APIKey == "" {
			errs = append(errs, errors.New("api_key is required for the neobase provider (set NEOBASE_API_KEY)"))
		}
	case ProviderOpenAI:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q (want %s or %s)", c.Provider, ProviderNeobase, ProviderOpenAI))
	}

	switch strings.ToLower(c.Cache.Backend) {
	case CacheNone, CacheMemory, "":
	case CacheRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}

	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.MaxInputSize < 0 {
		errs = append(errs, errors.New("max_input_size must not be negative"))
	}

	return errors.Join(errs...)
}
