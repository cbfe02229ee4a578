package transcache

import (
	"context"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// skipTags are HTML elements whose text is never lesson vocabulary.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"textarea": true,
	"noscript": true,
}

// LessonWarmer pre-populates the cache from lesson HTML: it extracts
// the Chinese vocabulary, looks up what is already cached, translates
// the rest through the upstream provider, and writes the new
// translations back as one batch.
type LessonWarmer struct {
	cache      *Cache
	translator WordTranslator
	provider   Provider
	logger     *zap.Logger
}

// WarmResult summarizes one warm-up pass.
type WarmResult struct {
	Extracted  int `json:"extracted"`  // vocabulary words found in the lesson
	Cached     int `json:"cached"`     // already present in a tier
	Translated int `json:"translated"` // fetched from the provider and cached
}

// NewLessonWarmer creates a warmer. The translator may be nil, in which
// case warming only reports what is cached versus missing.
func NewLessonWarmer(cache *Cache, translator WordTranslator, provider Provider, logger *zap.Logger) *LessonWarmer {
	if provider == "" {
		provider = ProviderPrimary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonWarmer{
		cache:      cache,
		translator: translator,
		provider:   provider,
		logger:     logger,
	}
}

// WarmFromHTML extracts Chinese vocabulary from lesson HTML and ensures
// every word is cached. Provider failures abort the pass; cache tier
// failures are absorbed by the cache itself.
func (w *LessonWarmer) WarmFromHTML(ctx context.Context, html, sourceLang, targetLang string) (*WarmResult, error) {
	words, err := ExtractVocabulary(html)
	if err != nil {
		return nil, err
	}
	return w.WarmWords(ctx, words, sourceLang, targetLang)
}

// WarmWords ensures every word in the list is cached.
func (w *LessonWarmer) WarmWords(ctx context.Context, words []string, sourceLang, targetLang string) (*WarmResult, error) {
	result := &WarmResult{Extracted: len(words)}
	if len(words) == 0 {
		return result, nil
	}

	batch := w.cache.GetBatch(ctx, words, sourceLang, targetLang)
	result.Cached = len(batch.Cached)

	if len(batch.Missing) == 0 || w.translator == nil {
		return result, nil
	}

	translations, err := w.translator.Translate(ctx, batch.Missing, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	if len(translations) != len(batch.Missing) {
		return nil, &CountMismatchError{Expected: len(batch.Missing), Got: len(translations)}
	}

	fresh := make(map[string]string, len(batch.Missing))
	for i, word := range batch.Missing {
		fresh[word] = translations[i]
	}

	if err := w.cache.SetBatch(ctx, fresh, w.provider, sourceLang, targetLang); err != nil {
		return nil, err
	}
	result.Translated = len(fresh)

	w.logger.Info("lesson vocabulary warmed",
		zap.Int("extracted", result.Extracted),
		zap.Int("cached", result.Cached),
		zap.Int("translated", result.Translated),
	)

	return result, nil
}

// ExtractVocabulary pulls the unique Chinese words out of lesson HTML,
// in document order. Runs of Han characters form one word; script,
// style, and code blocks are ignored.
func ExtractVocabulary(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var words []string
	seen := make(map[string]bool)

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if skipTags[goquery.NodeName(s)] {
			return
		}
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) != "#text" {
				return
			}
			for _, word := range splitHanRuns(c.Text()) {
				if !seen[word] {
					seen[word] = true
					words = append(words, word)
				}
			}
		})
	})

	return words, nil
}

// splitHanRuns splits text into maximal runs of Han characters.
func splitHanRuns(text string) []string {
	var words []string
	var run []rune

	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			run = append(run, r)
			continue
		}
		if len(run) > 0 {
			words = append(words, string(run))
			run = run[:0]
		}
	}
	if len(run) > 0 {
		words = append(words, string(run))
	}

	return words
}
