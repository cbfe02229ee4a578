package transcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DeriveKey computes the cache key for a (word, sourceLang, targetLang)
// triple: a SHA-256 hash over the normalized composite string
// lowercase(trim(word)) + "_" + sourceLang + "_" + targetLang.
// Empty language codes default to "zh" and "vi". The word's casing and
// surrounding whitespace never affect the key.
func DeriveKey(word, sourceLang, targetLang string) string {
	normalized := strings.ToLower(strings.TrimSpace(word))
	sourceLang, targetLang = NormalizeLangPair(sourceLang, targetLang)

	sum := sha256.Sum256([]byte(normalized + "_" + sourceLang + "_" + targetLang))
	return hex.EncodeToString(sum[:])
}

// NormalizeLangPair applies the default language codes for empty inputs.
func NormalizeLangPair(sourceLang, targetLang string) (string, string) {
	if sourceLang == "" {
		sourceLang = DefaultSourceLang
	}
	if targetLang == "" {
		targetLang = DefaultTargetLang
	}
	return sourceLang, targetLang
}
