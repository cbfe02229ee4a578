package transcache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultFlushEvery is the entry-count interval for opportunistic
// snapshot flushes after single-entry writes.
const defaultFlushEvery = 10

// Cache composes the three tiers into one logical translation cache
// with read-through fallback and write-through population.
//
// Lookup order encodes the priority policy: the fast tier is the
// freshest authoritative source, the durable tier is the system of
// record, and the local tier is an emergency-only fallback. A durable
// hit is copied back into the fast tier; a local hit never repopulates
// the faster tiers.
type Cache struct {
	fast       TierStore // optional
	durable    TierStore // optional, feature-detected per deployment
	local      LocalTier
	logger     *zap.Logger
	flushEvery int
	observe    func(tier string)
}

// Option configures a Cache.
type Option func(*Cache)

// WithFastTier sets the shared low-latency tier (Redis).
func WithFastTier(store TierStore) Option {
	return func(c *Cache) {
		c.fast = store
	}
}

// WithDurableTier sets the relational system-of-record tier. Leave
// unset when no durable store is configured for the deployment.
func WithDurableTier(store TierStore) Option {
	return func(c *Cache) {
		c.durable = store
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithLookupObserver registers a callback invoked once per lookup with
// the name of the tier that served the hit, or "" for a full miss. It
// fires for every lookup path, batch and warm-up included.
func WithLookupObserver(fn func(tier string)) Option {
	return func(c *Cache) {
		c.observe = fn
	}
}

// WithFlushEvery overrides how many local entries accumulate between
// opportunistic snapshot flushes on single-entry writes.
func WithFlushEvery(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.flushEvery = n
		}
	}
}

// New creates a Cache over the given local tier. The fast and durable
// tiers are optional and attached via options.
func New(local LocalTier, opts ...Option) *Cache {
	c := &Cache{
		local:      local,
		logger:     zap.NewNop(),
		flushEvery: defaultFlushEvery,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Lookup queries the tiers in priority order and reports which tier
// served the hit. Tier failures are logged and treated as misses for
// that tier; Lookup itself never fails.
func (c *Cache) Lookup(ctx context.Context, word, sourceLang, targetLang string) LookupResult {
	result := c.lookup(ctx, word, sourceLang, targetLang)
	if c.observe != nil {
		c.observe(result.Tier)
	}
	return result
}

func (c *Cache) lookup(ctx context.Context, word, sourceLang, targetLang string) LookupResult {
	sourceLang, targetLang = NormalizeLangPair(sourceLang, targetLang)
	key := DeriveKey(word, sourceLang, targetLang)

	if c.fast != nil {
		translation, ok, err := c.fast.Get(ctx, key)
		if err != nil {
			c.logTierError(&TierError{Tier: c.fast.Name(), Op: "get", Cause: err})
		} else if ok {
			return LookupResult{Translation: translation, Found: true, Tier: c.fast.Name()}
		}
	}

	if c.durable != nil {
		translation, ok, err := c.durable.Get(ctx, key)
		if err != nil {
			c.logTierError(&TierError{Tier: c.durable.Name(), Op: "get", Cause: err})
		} else if ok {
			c.backfillFast(ctx, key, word, translation, sourceLang, targetLang)
			return LookupResult{Translation: translation, Found: true, Tier: c.durable.Name()}
		}
	}

	// Local tier enforces its own TTL on read.
	translation, ok, err := c.local.Get(ctx, key)
	if err != nil {
		c.logTierError(&TierError{Tier: c.local.Name(), Op: "get", Cause: err})
	} else if ok {
		return LookupResult{Translation: translation, Found: true, Tier: c.local.Name()}
	}

	return LookupResult{}
}

// Get returns the cached translation for word, falling through the
// tiers in priority order.
func (c *Cache) Get(ctx context.Context, word, sourceLang, targetLang string) (string, bool) {
	r := c.Lookup(ctx, word, sourceLang, targetLang)
	return r.Translation, r.Found
}

// Set caches a translation in every configured tier. Word and
// translation are trimmed before storing; the entry records the current
// time and the supplied provider (ProviderPrimary when empty). The
// local snapshot is flushed opportunistically when the entry count hits
// the flush interval.
func (c *Cache) Set(ctx context.Context, word, translation string, provider Provider, sourceLang, targetLang string) error {
	entry := c.newEntry(word, translation, provider, sourceLang, targetLang)
	key := DeriveKey(entry.Word, entry.SourceLang, entry.TargetLang)

	c.writeEntry(ctx, key, entry)

	if c.local.Len()%c.flushEvery == 0 {
		c.flushSnapshot()
	}

	return nil
}

// GetBatch looks up each word sequentially. Missing preserves input
// order and duplicates: a repeated word goes to Missing even when its
// first occurrence hit, so callers own deduplication.
func (c *Cache) GetBatch(ctx context.Context, words []string, sourceLang, targetLang string) BatchResult {
	result := BatchResult{Cached: make(map[string]string)}

	for _, word := range words {
		if translation, ok := c.Get(ctx, word, sourceLang, targetLang); ok {
			if _, seen := result.Cached[word]; !seen {
				result.Cached[word] = translation
				continue
			}
		}
		result.Missing = append(result.Missing, word)
	}

	return result
}

// SetBatch caches all translations concurrently, waits for every write
// to finish, then forces one snapshot flush regardless of the
// opportunistic flush counter.
func (c *Cache) SetBatch(ctx context.Context, translations map[string]string, provider Provider, sourceLang, targetLang string) error {
	g, gctx := errgroup.WithContext(ctx)

	for word, translation := range translations {
		entry := c.newEntry(word, translation, provider, sourceLang, targetLang)
		key := DeriveKey(entry.Word, entry.SourceLang, entry.TargetLang)

		g.Go(func() error {
			c.writeEntry(gctx, key, entry)
			return nil
		})
	}

	// Individual writes never fail the batch; the barrier only orders
	// the snapshot flush after the last write.
	_ = g.Wait()

	c.flushSnapshot()
	return nil
}

// Stats summarizes the local tier's in-memory contents.
func (c *Cache) Stats() Stats {
	entries := c.local.Entries()

	stats := Stats{
		TotalEntries: len(entries),
		ByProvider:   make(map[Provider]int),
	}

	for _, entry := range entries {
		stats.ByProvider[entry.Provider]++
		if stats.OldestTimestamp == 0 || entry.Timestamp < stats.OldestTimestamp {
			stats.OldestTimestamp = entry.Timestamp
		}
		if entry.Timestamp > stats.NewestTimestamp {
			stats.NewestTimestamp = entry.Timestamp
		}
	}

	return stats
}

// ClearExpired sweeps expired entries from the local tier and returns
// how many were removed. The snapshot is persisted only when the sweep
// removed something.
func (c *Cache) ClearExpired() int {
	removed := c.local.RemoveExpired()
	if removed > 0 {
		c.flushSnapshot()
		c.logger.Info("expired translations removed",
			zap.Int("removed", removed),
			zap.Int("remaining", c.local.Len()),
		)
	}
	return removed
}

// ClearAll wipes the local tier and persists the empty snapshot. The
// fast and durable tiers are owned externally and are not touched.
func (c *Cache) ClearAll() error {
	c.local.Clear()
	if err := c.local.SaveSnapshot(); err != nil {
		c.logger.Warn("snapshot flush failed", zap.Error(err))
		return err
	}
	return nil
}

// newEntry builds a fully-populated entry from caller input.
func (c *Cache) newEntry(word, translation string, provider Provider, sourceLang, targetLang string) Entry {
	if provider == "" {
		provider = ProviderPrimary
	}
	sourceLang, targetLang = NormalizeLangPair(sourceLang, targetLang)

	return Entry{
		Word:        strings.TrimSpace(word),
		Translation: strings.TrimSpace(translation),
		SourceLang:  sourceLang,
		TargetLang:  targetLang,
		Timestamp:   time.Now().UnixMilli(),
		Provider:    provider,
	}
}

// writeEntry populates every configured tier. Tier failures are logged
// and absorbed; the local in-memory write always happens.
func (c *Cache) writeEntry(ctx context.Context, key string, entry Entry) {
	if c.fast != nil {
		if err := c.fast.Set(ctx, key, entry); err != nil {
			c.logTierError(&TierError{Tier: c.fast.Name(), Op: "set", Cause: err})
		}
	}

	if c.durable != nil {
		if err := c.durable.Set(ctx, key, entry); err != nil {
			c.logTierError(&TierError{Tier: c.durable.Name(), Op: "set", Cause: err})
		}
	}

	if err := c.local.Set(ctx, key, entry); err != nil {
		c.logTierError(&TierError{Tier: c.local.Name(), Op: "set", Cause: err})
	}
}

// backfillFast copies a durable-tier hit into the fast tier, best
// effort.
func (c *Cache) backfillFast(ctx context.Context, key, word, translation, sourceLang, targetLang string) {
	if c.fast == nil {
		return
	}

	entry := Entry{
		Word:        strings.TrimSpace(word),
		Translation: translation,
		SourceLang:  sourceLang,
		TargetLang:  targetLang,
		Timestamp:   time.Now().UnixMilli(),
		Provider:    ProviderPrimary,
	}

	if err := c.fast.Set(ctx, key, entry); err != nil {
		c.logTierError(&TierError{Tier: c.fast.Name(), Op: "set", Cause: err})
	}
}

func (c *Cache) flushSnapshot() {
	if err := c.local.SaveSnapshot(); err != nil {
		c.logger.Warn("snapshot flush failed", zap.Error(err))
	}
}

func (c *Cache) logTierError(err *TierError) {
	c.logger.Warn("cache tier unavailable",
		zap.String("tier", err.Tier),
		zap.String("op", err.Op),
		zap.Error(err.Cause),
	)
}
