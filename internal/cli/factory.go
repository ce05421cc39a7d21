package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/mermaidviz"
	"github.com/aretw0/mermaidviz/internal/config"
	"github.com/aretw0/mermaidviz/internal/logging"
	"github.com/aretw0/mermaidviz/pkg/adapters/memory"
	"github.com/aretw0/mermaidviz/pkg/adapters/neobase"
	"github.com/aretw0/mermaidviz/pkg/adapters/openai"
	"github.com/aretw0/mermaidviz/pkg/adapters/redis"
	"github.com/aretw0/mermaidviz/pkg/keylock"
	"github.com/aretw0/mermaidviz/pkg/observability"
	"github.com/aretw0/mermaidviz/pkg/ports"
)

// App bundles the converter with the resources it holds.
type App struct {
	Converter *mermaidviz.Converter
	Metrics   *observability.Metrics
	closers   []io.Closer
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger for cfg. Debug forces the debug level.
func NewLogger(w io.Writer, cfg config.Config, debug bool) *slog.Logger {
	level := logging.ParseLevel(cfg.LogLevel)
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithFormat(w, cfg.LogFormat, level)
}

// NewGenerator returns the upstream client selected by cfg.Provider.
func NewGenerator(cfg config.Config, logger *slog.Logger) (ports.Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderNeobase, "":
		opts := []neobase.Option{neobase.WithLogger(logger)}
		if cfg.APIURL != "" {
			opts = append(opts, neobase.WithURL(cfg.APIURL))
		}
		if cfg.User != "" {
			opts = append(opts, neobase.WithUser(cfg.User))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, neobase.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		return neobase.New(cfg.APIKey, opts...), nil
	case config.ProviderOpenAI:
		opts := []openai.Option{openai.WithLogger(logger), openai.WithKey(cfg.APIKey), openai.WithModel(cfg.Model)}
		if cfg.APIURL != "" {
			opts = append(opts, openai.WithURL(cfg.APIURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
		}
		return openai.New(opts...), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// NewApp wires generator, cache, locks and metrics from cfg.
// Metrics are only created when withMetrics is set.
func NewApp(cfg config.Config, logger *slog.Logger, withMetrics bool) (*App, error) {
	gen, err := NewGenerator(cfg, logger)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, gen, logger, withMetrics)
}

func newApp(cfg config.Config, gen ports.Generator, logger *slog.Logger, withMetrics bool) (*App, error) {
	app := &App{}

	opts := []mermaidviz.Option{
		mermaidviz.WithLogger(logger),
		mermaidviz.WithMaxInputSize(cfg.MaxInputSize),
		mermaidviz.WithStripFences(cfg.StripFences),
	}

	switch strings.ToLower(cfg.Cache.Backend) {
	case config.CacheMemory:
		opts = append(opts, mermaidviz.WithCache(memory.NewCache(memory.WithTTL(cfg.Cache.TTL)), cfg.Cache.TTL))
	case config.CacheRedis:
		cache := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithTTL(cfg.Cache.TTL),
			redis.WithPrefix(cfg.Cache.Prefix),
		)
		app.closers = append(app.closers, cache)
		opts = append(opts,
			mermaidviz.WithCache(cache, cfg.Cache.TTL),
			mermaidviz.WithLocker(redis.NewLocker(cache.Client(), cfg.Cache.Prefix)),
			mermaidviz.WithLockTTL(lockTTL(cfg.Timeout)),
		)
	case config.CacheNone, "":
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}

	hooks := observability.LogHooks(logger)
	if withMetrics {
		app.Metrics = observability.NewMetrics()
		hooks = observability.Combine(hooks, app.Metrics.Hooks())
	}
	opts = append(opts, mermaidviz.WithLifecycleHooks(hooks))

	conv, err := mermaidviz.New(gen, opts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Converter = conv
	return app, nil
}

// lockTTL keeps a fill lock alive for the whole upstream call plus a margin.
func lockTTL(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return keylock.DefaultTTL
	}
	return timeout + keylock.DefaultTTL
}
