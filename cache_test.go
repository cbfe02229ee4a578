package transcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeTier is an in-memory TierStore with scriptable failures.
type fakeTier struct {
	mu     sync.Mutex
	name   string
	data   map[string]string
	getErr error
	setErr error
}

func newFakeTier(name string) *fakeTier {
	return &fakeTier{name: name, data: make(map[string]string)}
}

func (f *fakeTier) Name() string { return f.name }

func (f *fakeTier) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	val, ok := f.data[key]
	return val, ok, nil
}

func (f *fakeTier) Set(_ context.Context, key string, entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = entry.Translation
	return nil
}

// fakeLocal implements LocalTier in memory, counting snapshot flushes.
type fakeLocal struct {
	mu        sync.Mutex
	entries   map[string]Entry
	maxAge    time.Duration
	saveCalls int
	saveErr   error
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{entries: make(map[string]Entry), maxAge: DefaultMaxAge}
}

func (f *fakeLocal) Name() string { return "local" }

func (f *fakeLocal) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok {
		return "", false, nil
	}
	if entry.Age(time.Now()) > f.maxAge {
		delete(f.entries, key)
		return "", false, nil
	}
	return entry.Translation, true, nil
}

func (f *fakeLocal) Set(_ context.Context, key string, entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = entry
	return nil
}

func (f *fakeLocal) Entries() map[string]Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]Entry, len(f.entries))
	for k, v := range f.entries {
		out[k] = v
	}
	return out
}

func (f *fakeLocal) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *fakeLocal) Remove(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
}

func (f *fakeLocal) RemoveExpired() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	removed := 0
	for k, v := range f.entries {
		if v.Age(now) > f.maxAge {
			delete(f.entries, k)
			removed++
		}
	}
	return removed
}

func (f *fakeLocal) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]Entry)
}

func (f *fakeLocal) SaveSnapshot() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	return f.saveErr
}

func (f *fakeLocal) snapshots() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saveCalls
}

func TestCache_RoundTrip_LocalOnly(t *testing.T) {
	c := New(newFakeLocal())
	ctx := context.Background()

	if err := c.Set(ctx, "你好", "xin chào", "", "", ""); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, ok := c.Get(ctx, "你好", "", "")
	if !ok || val != "xin chào" {
		t.Errorf("Get returned (%q, %v), want (%q, true)", val, ok, "xin chào")
	}
}

func TestCache_RoundTrip_TiersUnreachable(t *testing.T) {
	fast := newFakeTier("redis")
	fast.getErr = errors.New("connection refused")
	fast.setErr = errors.New("connection refused")
	durable := newFakeTier("postgres")
	durable.getErr = errors.New("dial timeout")
	durable.setErr = errors.New("dial timeout")

	c := New(newFakeLocal(), WithFastTier(fast), WithDurableTier(durable))
	ctx := context.Background()

	if err := c.Set(ctx, "你好", "xin chào", "", "", ""); err != nil {
		t.Fatalf("Set must absorb tier failures, got %v", err)
	}

	val, ok := c.Get(ctx, "你好", "", "")
	if !ok || val != "xin chào" {
		t.Errorf("local tier must still satisfy the round trip, got (%q, %v)", val, ok)
	}
}

func TestCache_TierPriority_FastWins(t *testing.T) {
	fast := newFakeTier("redis")
	durable := newFakeTier("postgres")
	key := DeriveKey("猫", "zh", "vi")
	fast.data[key] = "A"
	durable.data[key] = "B"

	c := New(newFakeLocal(), WithFastTier(fast), WithDurableTier(durable))

	r := c.Lookup(context.Background(), "猫", "", "")
	if !r.Found || r.Translation != "A" {
		t.Errorf("fast tier must win, got (%q, %v)", r.Translation, r.Found)
	}
	if r.Tier != "redis" {
		t.Errorf("hit attributed to %q, want redis", r.Tier)
	}
}

func TestCache_DurableHitBackfillsFast(t *testing.T) {
	fast := newFakeTier("redis")
	durable := newFakeTier("postgres")
	key := DeriveKey("猫", "zh", "vi")
	durable.data[key] = "mèo"

	c := New(newFakeLocal(), WithFastTier(fast), WithDurableTier(durable))

	r := c.Lookup(context.Background(), "猫", "", "")
	if !r.Found || r.Translation != "mèo" {
		t.Fatalf("durable hit expected, got (%q, %v)", r.Translation, r.Found)
	}
	if r.Tier != "postgres" {
		t.Errorf("hit attributed to %q, want postgres", r.Tier)
	}

	if fast.data[key] != "mèo" {
		t.Error("durable hit must be written through to the fast tier")
	}
}

func TestCache_LocalHitDoesNotBackfill(t *testing.T) {
	fast := newFakeTier("redis")
	durable := newFakeTier("postgres")
	local := newFakeLocal()
	key := DeriveKey("猫", "zh", "vi")
	local.entries[key] = Entry{Word: "猫", Translation: "mèo", Timestamp: time.Now().UnixMilli()}

	c := New(local, WithFastTier(fast), WithDurableTier(durable))

	r := c.Lookup(context.Background(), "猫", "", "")
	if !r.Found || r.Tier != "local" {
		t.Fatalf("local hit expected, got tier %q found=%v", r.Tier, r.Found)
	}

	if len(fast.data) != 0 || len(durable.data) != 0 {
		t.Error("a local hit must not repopulate the faster tiers")
	}
}

func TestCache_FastFailureFallsThrough(t *testing.T) {
	fast := newFakeTier("redis")
	fast.getErr = errors.New("connection refused")
	durable := newFakeTier("postgres")
	key := DeriveKey("猫", "zh", "vi")
	durable.data[key] = "mèo"

	c := New(newFakeLocal(), WithFastTier(fast), WithDurableTier(durable))

	val, ok := c.Get(context.Background(), "猫", "", "")
	if !ok || val != "mèo" {
		t.Errorf("a failing fast tier must fall through to durable, got (%q, %v)", val, ok)
	}
}

func TestCache_SetTrimsAndDefaultsProvider(t *testing.T) {
	local := newFakeLocal()
	c := New(local)
	ctx := context.Background()

	c.Set(ctx, "  你好  ", "  xin chào  ", "", "", "")

	entries := local.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, have %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Word != "你好" {
			t.Errorf("word not trimmed: %q", entry.Word)
		}
		if entry.Translation != "xin chào" {
			t.Errorf("translation not trimmed: %q", entry.Translation)
		}
		if entry.Provider != ProviderPrimary {
			t.Errorf("provider = %q, want %q", entry.Provider, ProviderPrimary)
		}
		if entry.SourceLang != "zh" || entry.TargetLang != "vi" {
			t.Errorf("languages not defaulted: %s→%s", entry.SourceLang, entry.TargetLang)
		}
	}

	// Trimmed and untrimmed spellings resolve to the same entry.
	val, ok := c.Get(ctx, "你好", "", "")
	if !ok || val != "xin chào" {
		t.Errorf("trimmed word lookup failed: (%q, %v)", val, ok)
	}
}

func TestCache_SetReplacesEntry(t *testing.T) {
	local := newFakeLocal()
	c := New(local)
	ctx := context.Background()

	c.Set(ctx, "你好", "xin chào", ProviderPrimary, "", "")
	first := c.Stats().NewestTimestamp

	time.Sleep(2 * time.Millisecond)
	c.Set(ctx, "你好", "chào bạn", ProviderSecondary, "", "")

	val, _ := c.Get(ctx, "你好", "", "")
	if val != "chào bạn" {
		t.Errorf("re-set must fully replace the entry, got %q", val)
	}

	stats := c.Stats()
	if stats.TotalEntries != 1 {
		t.Errorf("re-set must not add entries, have %d", stats.TotalEntries)
	}
	if stats.NewestTimestamp <= first {
		t.Error("re-set must refresh the timestamp")
	}
	if stats.ByProvider[ProviderSecondary] != 1 {
		t.Error("re-set must replace the provider")
	}
}

func TestCache_GetBatch_PreservesDuplicates(t *testing.T) {
	local := newFakeLocal()
	c := New(local)
	ctx := context.Background()

	c.Set(ctx, "猫", "mèo", "", "", "")

	result := c.GetBatch(ctx, []string{"猫", "狗", "猫"}, "", "")

	if len(result.Cached) != 1 || result.Cached["猫"] != "mèo" {
		t.Errorf("cached = %v, want only 猫", result.Cached)
	}
	// The repeated 猫 stays in missing: the batch does not deduplicate.
	want := []string{"狗", "猫"}
	if len(result.Missing) != len(want) {
		t.Fatalf("missing = %v, want %v", result.Missing, want)
	}
	for i, w := range want {
		if result.Missing[i] != w {
			t.Errorf("missing[%d] = %q, want %q", i, result.Missing[i], w)
		}
	}
}

func TestCache_GetBatch_MissingKeepsOrderAndDuplicates(t *testing.T) {
	c := New(newFakeLocal())

	result := c.GetBatch(context.Background(), []string{"狗", "猫", "狗"}, "", "")
	want := []string{"狗", "猫", "狗"}
	if len(result.Missing) != len(want) {
		t.Fatalf("missing = %v, want %v", result.Missing, want)
	}
	for i, w := range want {
		if result.Missing[i] != w {
			t.Errorf("missing[%d] = %q, want %q", i, result.Missing[i], w)
		}
	}
}

func TestCache_SetBatch_WritesAllAndFlushesOnce(t *testing.T) {
	local := newFakeLocal()
	fast := newFakeTier("redis")
	c := New(local, WithFastTier(fast))
	ctx := context.Background()

	batch := map[string]string{
		"猫": "mèo",
		"狗": "chó",
		"鱼": "cá",
	}
	if err := c.SetBatch(ctx, batch, ProviderSecondary, "", ""); err != nil {
		t.Fatalf("SetBatch failed: %v", err)
	}

	if local.Len() != 3 {
		t.Errorf("local tier has %d entries, want 3", local.Len())
	}
	if len(fast.data) != 3 {
		t.Errorf("fast tier has %d entries, want 3", len(fast.data))
	}
	if local.snapshots() != 1 {
		t.Errorf("SetBatch must flush exactly one snapshot, flushed %d", local.snapshots())
	}

	for word, translation := range batch {
		if val, ok := c.Get(ctx, word, "", ""); !ok || val != translation {
			t.Errorf("Get(%q) = (%q, %v), want (%q, true)", word, val, ok, translation)
		}
	}
}

func TestCache_OpportunisticFlushEveryNth(t *testing.T) {
	local := newFakeLocal()
	c := New(local, WithFlushEvery(10))
	ctx := context.Background()

	words := []string{"一", "二", "三", "四", "五", "六", "七", "八", "九"}
	for _, w := range words {
		c.Set(ctx, w, "x", "", "", "")
	}
	if local.snapshots() != 0 {
		t.Errorf("no flush expected before the 10th entry, got %d", local.snapshots())
	}

	c.Set(ctx, "十", "x", "", "", "")
	if local.snapshots() != 1 {
		t.Errorf("10th entry must trigger a flush, got %d", local.snapshots())
	}
}

func TestCache_LookupObserver(t *testing.T) {
	local := newFakeLocal()
	var seen []string
	c := New(local, WithLookupObserver(func(tier string) {
		seen = append(seen, tier)
	}))
	ctx := context.Background()

	c.Set(ctx, "猫", "mèo", "", "", "")

	if _, ok := c.Get(ctx, "猫", "", ""); !ok {
		t.Fatal("expected hit")
	}
	if _, ok := c.Get(ctx, "狗", "", ""); ok {
		t.Fatal("expected miss")
	}

	// Batch lookups observe every word, duplicates included. The
	// repeated 猫 hits the local tier even though it lands in Missing.
	c.GetBatch(ctx, []string{"猫", "狗", "猫"}, "", "")

	want := []string{"local", "", "local", "", "local"}
	if len(seen) != len(want) {
		t.Fatalf("observed %v, want %v", seen, want)
	}
	for i, w := range want {
		if seen[i] != w {
			t.Errorf("observed[%d] = %q, want %q", i, seen[i], w)
		}
	}
}

func TestCache_Stats(t *testing.T) {
	local := newFakeLocal()
	c := New(local)
	ctx := context.Background()

	if got := c.Stats(); got.TotalEntries != 0 {
		t.Errorf("cold cache TotalEntries = %d, want 0", got.TotalEntries)
	}

	c.Set(ctx, "你好", "xin chào", "", "", "")
	c.SetBatch(ctx, map[string]string{}, "", "", "")

	stats := c.Stats()
	if stats.TotalEntries != 1 {
		t.Errorf("TotalEntries = %d, want 1", stats.TotalEntries)
	}
	if stats.OldestTimestamp != stats.NewestTimestamp {
		t.Errorf("single entry: oldest (%d) must equal newest (%d)",
			stats.OldestTimestamp, stats.NewestTimestamp)
	}
	if stats.ByProvider[ProviderPrimary] != 1 {
		t.Errorf("ByProvider = %v, want 1 primary", stats.ByProvider)
	}
}

func TestCache_ClearExpired(t *testing.T) {
	local := newFakeLocal()
	local.maxAge = time.Hour
	c := New(local)

	stale := Entry{Word: "猫", Translation: "mèo",
		Timestamp: time.Now().Add(-2 * time.Hour).UnixMilli()}
	fresh := Entry{Word: "狗", Translation: "chó",
		Timestamp: time.Now().UnixMilli()}
	local.entries["stale"] = stale
	local.entries["fresh"] = fresh

	removed := c.ClearExpired()
	if removed != 1 {
		t.Errorf("ClearExpired returned %d, want 1", removed)
	}
	if local.snapshots() != 1 {
		t.Errorf("a sweep that removed entries must persist, flushed %d", local.snapshots())
	}

	// Nothing left to remove: no flush either.
	if removed := c.ClearExpired(); removed != 0 {
		t.Errorf("second sweep removed %d, want 0", removed)
	}
	if local.snapshots() != 1 {
		t.Error("an empty sweep must not persist the snapshot")
	}
}

func TestCache_ClearAll(t *testing.T) {
	local := newFakeLocal()
	c := New(local)
	ctx := context.Background()

	c.Set(ctx, "你好", "xin chào", "", "", "")
	if err := c.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	if local.Len() != 0 {
		t.Errorf("local tier not emptied, %d entries remain", local.Len())
	}
	if local.snapshots() == 0 {
		t.Error("ClearAll must persist the empty snapshot")
	}
}

func TestCache_LocalTTLExpiryOnGet(t *testing.T) {
	local := newFakeLocal()
	local.maxAge = time.Hour
	c := New(local)

	key := DeriveKey("猫", "zh", "vi")
	local.entries[key] = Entry{Word: "猫", Translation: "mèo",
		Timestamp: time.Now().Add(-2 * time.Hour).UnixMilli()}

	if _, ok := c.Get(context.Background(), "猫", "", ""); ok {
		t.Error("an entry older than the max age must be treated as absent")
	}
	if local.Len() != 0 {
		t.Error("the expired entry must be removed as a side effect of the read")
	}
}
