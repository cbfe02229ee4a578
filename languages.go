package transcache

import "strings"

// LanguageNames maps short language codes to human-readable names for
// provider prompts.
var LanguageNames = map[string]string{
	"zh": "Chinese (Simplified)",
	"vi": "Vietnamese",
	"en": "English",
	"ja": "Japanese",
	"ko": "Korean",
	"fr": "French",
	"de": "German",
	"es": "Spanish",
}

// GetLanguageName returns the human-readable name for a language code.
// Unknown codes are returned as-is so prompts stay usable.
func GetLanguageName(langCode string) string {
	code := strings.ToLower(strings.TrimSpace(langCode))
	if name, ok := LanguageNames[code]; ok {
		return name
	}
	return langCode
}
