// Package provider implements the upstream translation backends the
// EduFlow handlers call on a full cache miss.
package provider

import "github.com/eduflow/transcache"

// Translator is the word-batch translation contract.
// This is an alias to the main package interface for convenience.
type Translator = transcache.WordTranslator
