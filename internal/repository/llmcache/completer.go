package llmcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/recollect/internal/db"
	"github.com/kailas-cloud/recollect/internal/domain"
)

const keySegment = "llm_cache:"

// store is the consumer interface for the completion cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedCompleter caches completion text in a key-value store.
type CachedCompleter struct {
	inner      domain.Completer
	store      store
	keyPrefix  string
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	cacheable  func(text string) bool
	logger     *zap.Logger
}

// Config holds cache decorator settings.
type Config struct {
	KeyPrefix string
	// Model is mixed into the key so switching models invalidates old entries.
	Model string
	TTL   time.Duration
	// CacheTotal is a counter vec with label "result" ("hit"/"miss"). Optional.
	CacheTotal *prometheus.CounterVec
	// Cacheable vets a reply before it is stored. Nil stores every reply.
	Cacheable func(text string) bool
	Logger    *zap.Logger
}

// New creates a caching decorator around inner.
func New(inner domain.Completer, s store, cfg Config) *CachedCompleter {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCompleter{
		inner:      inner,
		store:      s,
		keyPrefix:  cfg.KeyPrefix + keySegment,
		model:      cfg.Model,
		ttl:        cfg.TTL,
		cacheTotal: cfg.CacheTotal,
		cacheable:  cfg.Cacheable,
		logger:     logger,
	}
}

// Complete returns a cached completion or calls the inner completer.
// Cache hit: zero token usage. Cache errors never fail the call.
func (c *CachedCompleter) Complete(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	key := c.cacheKey(p)

	if text, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return domain.Completion{Text: text}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Complete(ctx, p)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("complete prompt: %w", err)
	}

	if c.cacheable != nil && !c.cacheable(result.Text) {
		c.logger.Debug("Completion not cached", zap.String("key", key))
		return result, nil
	}
	c.putToCache(ctx, key, result.Text)
	return result, nil
}

func (c *CachedCompleter) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedCompleter) cacheKey(p domain.Prompt) string {
	h := sha256.New()
	for _, part := range []string{
		c.model,
		p.System,
		p.User,
		strconv.FormatBool(p.JSON),
		strconv.FormatFloat(float64(p.Temperature), 'f', -1, 32),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return c.keyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedCompleter) getFromCache(ctx context.Context, key string) (string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached completion", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	if len(data) == 0 {
		return "", false
	}
	return string(data), true
}

func (c *CachedCompleter) putToCache(ctx context.Context, key, text string) {
	if err := c.store.SetWithTTL(ctx, key, []byte(text), c.ttl); err != nil {
		c.logger.Warn("Failed to cache completion", zap.String("key", key), zap.Error(err))
	}
}
