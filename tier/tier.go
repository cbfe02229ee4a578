// Package tier provides the three storage tiers composed by the
// translation cache: a process-local snapshot-backed map, a shared
// Redis tier, and a durable Postgres tier.
package tier

import "github.com/eduflow/transcache"

// Compile-time interface checks.
var (
	_ transcache.LocalTier = (*Local)(nil)
	_ transcache.TierStore = (*Redis)(nil)
	_ transcache.TierStore = (*Postgres)(nil)
)
