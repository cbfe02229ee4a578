package provider

import (
	"context"
	"fmt"
)

// MockProvider is a canned-response translator for testing.
type MockProvider struct {
	Translations map[string]string // Map of source word to translation
	CallCount    int               // Number of times Translate was called
	LastWords    []string          // Last batch received
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"你好": "xin chào",
			"谢谢": "cảm ơn",
			"猫":  "mèo",
			"狗":  "chó",
		},
	}
}

// Translate returns mock translations.
func (m *MockProvider) Translate(_ context.Context, words []string, _, _ string) ([]string, error) {
	m.CallCount++
	m.LastWords = words

	results := make([]string, len(words))
	for i, word := range words {
		if translation, ok := m.Translations[word]; ok {
			results[i] = translation
		} else {
			// Return bracketed text for unknown words
			results[i] = fmt.Sprintf("[%s]", word)
		}
	}

	return results, nil
}

// Reset resets the call count and last batch.
func (m *MockProvider) Reset() {
	m.CallCount = 0
	m.LastWords = nil
}

// Verify MockProvider implements Translator
var _ Translator = (*MockProvider)(nil)
