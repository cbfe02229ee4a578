package transcache_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-redis/redismock/v9"

	"github.com/eduflow/transcache"
	"github.com/eduflow/transcache/provider"
	"github.com/eduflow/transcache/tier"
)

// Integration tests wiring real components together

func TestIntegration_WarmThenLookup(t *testing.T) {
	local := tier.NewLocal(tier.LocalConfig{Path: filepath.Join(t.TempDir(), "snapshot.json")})
	c := transcache.New(local)
	p := provider.NewMockProvider()
	warmer := transcache.NewLessonWarmer(c, p, transcache.ProviderPrimary, nil)

	html := `<div><h1>第一课</h1><p>你好，谢谢。</p></div>`

	result, err := warmer.WarmFromHTML(context.Background(), html, "zh", "vi")
	if err != nil {
		t.Fatalf("WarmFromHTML failed: %v", err)
	}

	if result.Translated == 0 {
		t.Error("Expected at least one word translated")
	}

	// Warmed words should now be lookups, not misses
	got, found := c.Get(context.Background(), "你好", "zh", "vi")
	if !found {
		t.Fatal("Expected 你好 to be cached after warming")
	}
	if got != "xin chào" {
		t.Errorf("Expected 'xin chào', got %q", got)
	}
}

func TestIntegration_WarmSkipsCached(t *testing.T) {
	local := tier.NewLocal(tier.LocalConfig{Path: filepath.Join(t.TempDir(), "snapshot.json")})
	c := transcache.New(local)
	p := provider.NewMockProvider()
	warmer := transcache.NewLessonWarmer(c, p, transcache.ProviderPrimary, nil)

	html := `<p>你好</p><p>谢谢</p>`

	// First pass translates everything
	first, err := warmer.WarmFromHTML(context.Background(), html, "zh", "vi")
	if err != nil {
		t.Fatalf("First warm failed: %v", err)
	}
	if first.Translated != 2 || first.Cached != 0 {
		t.Errorf("First pass: expected 2 translated, 0 cached; got %d, %d",
			first.Translated, first.Cached)
	}

	// Second pass should find everything cached
	second, err := warmer.WarmFromHTML(context.Background(), html, "zh", "vi")
	if err != nil {
		t.Fatalf("Second warm failed: %v", err)
	}
	if second.Translated != 0 || second.Cached != 2 {
		t.Errorf("Second pass: expected 0 translated, 2 cached; got %d, %d",
			second.Translated, second.Cached)
	}

	// Provider should only be called once
	if p.CallCount != 1 {
		t.Errorf("Provider should be called once, was called %d times", p.CallCount)
	}
}

func TestIntegration_FastTierServesBeforeLocal(t *testing.T) {
	client, mock := redismock.NewClientMock()
	fast := tier.NewRedisFromClient(client, 0, "eduflow:translations:")

	local := tier.NewLocal(tier.LocalConfig{Path: filepath.Join(t.TempDir(), "snapshot.json")})
	c := transcache.New(local, transcache.WithFastTier(fast))

	key := transcache.DeriveKey("猫", "zh", "vi")
	mock.ExpectGet("eduflow:translations:" + key).SetVal("mèo")

	result := c.Lookup(context.Background(), "猫", "zh", "vi")
	if !result.Found {
		t.Fatal("Expected hit from fast tier")
	}
	if result.Translation != "mèo" {
		t.Errorf("Expected 'mèo', got %q", result.Translation)
	}
	if result.Tier != "redis" {
		t.Errorf("Expected redis tier, got %q", result.Tier)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet redis expectations: %v", err)
	}
}

func TestIntegration_SnapshotSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")

	local := tier.NewLocal(tier.LocalConfig{Path: path})
	c := transcache.New(local)

	if err := c.Set(context.Background(), "狗", "chó", transcache.ProviderSecondary, "zh", "vi"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := local.SaveSnapshot(); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	// Simulate a restart by building a fresh cache over the same file
	reloaded := transcache.New(tier.NewLocal(tier.LocalConfig{Path: path}))

	got, found := reloaded.Get(context.Background(), "狗", "zh", "vi")
	if !found {
		t.Fatal("Expected 狗 to survive restart")
	}
	if got != "chó" {
		t.Errorf("Expected 'chó', got %q", got)
	}

	stats := reloaded.Stats()
	if stats.ByProvider[transcache.ProviderSecondary] != 1 {
		t.Errorf("Expected provider attribution to survive restart, got %+v", stats.ByProvider)
	}
}
