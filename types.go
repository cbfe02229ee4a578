package transcache

import (
	"context"
	"time"
)

// Provider identifies which upstream translation service produced a
// cached value. It is always supplied by the caller, never inferred.
type Provider string

const (
	// ProviderPrimary is the default provider recorded when the caller
	// does not specify one.
	ProviderPrimary Provider = "primary-provider"

	// ProviderSecondary marks values obtained from the fallback service.
	ProviderSecondary Provider = "secondary-provider"
)

// Default language codes for EduFlow vocabulary lookups.
const (
	DefaultSourceLang = "zh"
	DefaultTargetLang = "vi"
)

// DefaultMaxAge is the maximum age of a local-tier entry before it is
// treated as expired.
const DefaultMaxAge = 7 * 24 * time.Hour

// Entry is a single cached translation. Entries are immutable once
// written; a re-set for the same key fully replaces the entry,
// including its timestamp.
type Entry struct {
	Word        string   // source text, stored verbatim (trimmed)
	Translation string   // target text (trimmed)
	SourceLang  string   // short language code, e.g. "zh"
	TargetLang  string   // short language code, e.g. "vi"
	Timestamp   int64    // creation time in epoch milliseconds, not updated on read
	Provider    Provider // upstream service that produced the value
}

// Age returns how old the entry is relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(e.Timestamp))
}

// TierStore is the uniform get/set contract implemented by each cache
// tier. Get reports absent as ("", false, nil); a non-nil error means a
// genuine I/O failure, which the orchestrator logs and treats as a miss
// for that tier.
type TierStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, entry Entry) error

	// Name identifies the tier in logs and metrics.
	Name() string
}

// LocalTier is the process-local tier. Beyond the TierStore contract it
// exposes the bulk accessors the orchestrator needs for stats, expiry
// sweeps, and snapshot persistence.
type LocalTier interface {
	TierStore

	// Entries returns a copy of the in-memory map.
	Entries() map[string]Entry

	// Len returns the number of in-memory entries, including expired ones.
	Len() int

	// Remove deletes a single entry by key.
	Remove(key string)

	// RemoveExpired deletes all entries older than the configured max age
	// and returns how many were removed.
	RemoveExpired() int

	// Clear empties the in-memory map.
	Clear()

	// SaveSnapshot writes the in-memory map to the snapshot file.
	SaveSnapshot() error
}

// LookupResult is the typed outcome of a tiered lookup. The public Get
// collapses it to (translation, found); Lookup keeps the tier that
// served the hit for logging and metrics.
type LookupResult struct {
	Translation string
	Found       bool
	Tier        string // name of the tier that served the hit, "" on miss
}

// BatchResult is the outcome of a batch lookup. Missing preserves the
// input order and keeps duplicates; deduplication is the caller's
// responsibility.
type BatchResult struct {
	Cached  map[string]string
	Missing []string
}

// Stats summarizes the local tier's in-memory contents. It is scoped to
// the local tier only: the fast and durable tiers are external services
// and not efficiently enumerable.
type Stats struct {
	TotalEntries    int
	ByProvider      map[Provider]int
	OldestTimestamp int64 // epoch ms, 0 when empty
	NewestTimestamp int64 // epoch ms, 0 when empty
}
