package mermaidviz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/mermaidviz/internal/diagram"
	"github.com/aretw0/mermaidviz/internal/logging"
	"github.com/aretw0/mermaidviz/pkg/domain"
	"github.com/aretw0/mermaidviz/pkg/keylock"
	"github.com/aretw0/mermaidviz/pkg/ports"
)

// Converter turns free text into Mermaid syntax through a Generator.
// It is the high-level entry point for the library and is safe for concurrent use.
type Converter struct {
	generator    ports.Generator
	cache        ports.Cache
	cacheTTL     time.Duration
	locks        *keylock.Manager
	locker       ports.DistributedLocker
	lockTTL      time.Duration
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	maxInputSize int
	stripFences  bool
}

// Option defines a functional option for configuring the Converter.
type Option func(*Converter)

// WithCache stores answers so repeated inputs skip the generator.
func WithCache(cache ports.Cache, ttl time.Duration) Option {
	return func(c *Converter) {
		c.cache = cache
		c.cacheTTL = ttl
	}
}

// WithLocker coordinates cache fills across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Converter) {
		c.locker = locker
	}
}

// WithLockTTL sets how long a distributed fill lock survives a crashed holder.
// It must exceed the generator timeout, otherwise a slow upstream call loses
// its lock and another replica repeats it.
func WithLockTTL(ttl time.Duration) Option {
	return func(c *Converter) {
		c.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Converter) {
		c.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithMaxInputSize sets the largest accepted input in bytes.
func WithMaxInputSize(n int) Option {
	return func(c *Converter) {
		c.maxInputSize = n
	}
}

// WithStripFences removes a Markdown code fence wrapping the whole answer.
// Off by default: answers are returned verbatim.
func WithStripFences(enabled bool) Option {
	return func(c *Converter) {
		c.stripFences = enabled
	}
}

// New creates a Converter backed by gen.
func New(gen ports.Generator, opts ...Option) (*Converter, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}

	c := &Converter{
		generator:    gen,
		maxInputSize: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logging.NewNop()
	}

	lockOpts := []keylock.Option{keylock.WithLogger(c.logger)}
	if c.locker != nil {
		lockOpts = append(lockOpts, keylock.WithLocker(c.locker))
	}
	if c.lockTTL > 0 {
		lockOpts = append(lockOpts, keylock.WithTTL(c.lockTTL))
	}
	c.locks = keylock.NewManager(lockOpts...)

	return c, nil
}

// Digest returns the cache key for an already sanitized input.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Convert sanitizes text, asks the generator for an equivalent diagram and
// returns its answer.
func (c *Converter) Convert(ctx context.Context, text string) (string, error) {
	clean, err := SanitizeInput(text, c.maxInputSize)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(clean) == "" {
		return "", domain.ErrEmptyInput
	}

	event := &domain.ConvertEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventConvertStart},
		Key:       Digest(clean),
		InputSize: len(clean),
	}
	if c.hooks.OnConvertStart != nil {
		c.hooks.OnConvertStart(ctx, event)
	}

	answer, hit, err := c.convert(ctx, event.Key, clean)

	done := *event
	done.Type = domain.EventConvertDone
	done.Duration = time.Since(event.Timestamp)
	done.CacheHit = hit
	done.Err = err
	if err == nil {
		done.Kind = diagram.DetectKind(answer)
		done.OutputSize = len(answer)
	}
	if c.hooks.OnConvertDone != nil {
		c.hooks.OnConvertDone(ctx, &done)
	}

	if err != nil {
		return "", err
	}
	return answer, nil
}

func (c *Converter) convert(ctx context.Context, key, text string) (string, bool, error) {
	if c.cache == nil {
		answer, err := c.generate(ctx, text)
		return answer, false, err
	}

	if answer, ok := c.lookup(ctx, key); ok {
		return answer, true, nil
	}

	var (
		answer string
		hit    bool
	)
	err := c.locks.WithLock(ctx, key, func(ctx context.Context) error {
		// Another holder may have filled the cache while we waited.
		if cached, ok := c.lookup(ctx, key); ok {
			answer, hit = cached, true
			return nil
		}

		var err error
		answer, err = c.generate(ctx, text)
		if err != nil {
			return err
		}
		if err := c.cache.Set(ctx, key, answer, c.cacheTTL); err != nil {
			c.logger.Warn("Failed to cache answer", "key", key, "err", err)
		}
		return nil
	})
	return answer, hit, err
}

func (c *Converter) lookup(ctx context.Context, key string) (string, bool) {
	answer, err := c.cache.Get(ctx, key)
	if err == nil {
		return answer, true
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		c.logger.Warn("Cache lookup failed", "key", key, "err", err)
	}
	return "", false
}

func (c *Converter) generate(ctx context.Context, text string) (string, error) {
	answer, err := c.generator.Generate(ctx, BuildPrompt(text))
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}
	if c.stripFences {
		answer = diagram.StripFences(answer)
	}
	if strings.TrimSpace(answer) == "" {
		return "", domain.ErrEmptyAnswer
	}
	return answer, nil
}
