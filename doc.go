// Package transcache provides the tiered translation cache used by the
// EduFlow lesson-authoring backend for Chinese→Vietnamese vocabulary.
//
// Lookups fall through three tiers in priority order: a fast shared
// Redis tier, a durable Postgres tier, and a process-local in-memory
// map mirrored to a JSON snapshot file. A hit in the durable tier is
// copied back into the fast tier; the local tier is a last-resort
// fallback and never repopulates the others. Every tier failure is
// absorbed as a miss, so the cache is an optimization and never a hard
// dependency of the translation path.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/eduflow/transcache"
//	    "github.com/eduflow/transcache/tier"
//	)
//
//	func main() {
//	    local := tier.NewLocal(tier.LocalConfig{Path: "data/translations.json"})
//	    cache := transcache.New(local,
//	        transcache.WithFastTier(tier.NewRedisFromClient(rdb, 0, "eduflow:")),
//	    )
//
//	    cache.Set(context.Background(), "你好", "xin chào", transcache.ProviderPrimary, "", "")
//	    translation, ok := cache.Get(context.Background(), "你好", "", "")
//	    _ = translation
//	    _ = ok
//	}
package transcache
