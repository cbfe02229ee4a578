// Package httpapi is the narrow HTTP surface the EduFlow handlers use
// to reach the translation cache.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eduflow/transcache"
	"github.com/eduflow/transcache/metrics"
)

// Handler serves the cache endpoints. The translator is optional: when
// nil, a full cache miss is a 404 instead of a live translation.
type Handler struct {
	cache      *transcache.Cache
	translator transcache.WordTranslator
	warmer     *transcache.LessonWarmer
	logger     *zap.Logger
}

// NewHandler creates the handler set.
func NewHandler(cache *transcache.Cache, translator transcache.WordTranslator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cache:      cache,
		translator: translator,
		warmer:     transcache.NewLessonWarmer(cache, translator, transcache.ProviderPrimary, logger),
		logger:     logger,
	}
}

type translationResponse struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	SourceLang  string `json:"sourceLang"`
	TargetLang  string `json:"targetLang"`
	Cached      bool   `json:"cached"`
	Tier        string `json:"tier,omitempty"`
}

// GetTranslation looks a word up in the cache, falling back to the live
// provider when one is configured.
func (h *Handler) GetTranslation(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	sourceLang, targetLang := transcache.NormalizeLangPair(
		r.URL.Query().Get("source"), r.URL.Query().Get("target"))

	result := h.cache.Lookup(r.Context(), word, sourceLang, targetLang)

	if result.Found {
		writeJSON(w, http.StatusOK, translationResponse{
			Word:        word,
			Translation: result.Translation,
			SourceLang:  sourceLang,
			TargetLang:  targetLang,
			Cached:      true,
			Tier:        result.Tier,
		})
		return
	}

	if h.translator == nil {
		writeError(w, http.StatusNotFound, "translation not cached")
		return
	}

	translations, err := h.translator.Translate(r.Context(), []string{word}, sourceLang, targetLang)
	if err != nil || len(translations) != 1 {
		h.logger.Error("live translation failed", zap.String("word", word), zap.Error(err))
		writeError(w, http.StatusBadGateway, "translation provider unavailable")
		return
	}
	metrics.ProviderTranslationsTotal.Inc()

	if err := h.cache.Set(r.Context(), word, translations[0], transcache.ProviderPrimary, sourceLang, targetLang); err != nil {
		h.logger.Warn("caching live translation failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, translationResponse{
		Word:        word,
		Translation: translations[0],
		SourceLang:  sourceLang,
		TargetLang:  targetLang,
		Cached:      false,
	})
}

type putTranslationRequest struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Provider    string `json:"provider"`
	SourceLang  string `json:"sourceLang"`
	TargetLang  string `json:"targetLang"`
}

// PutTranslation caches a caller-supplied translation.
func (h *Handler) PutTranslation(w http.ResponseWriter, r *http.Request) {
	var req putTranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Word == "" || req.Translation == "" {
		writeError(w, http.StatusBadRequest, "word and translation are required")
		return
	}

	err := h.cache.Set(r.Context(), req.Word, req.Translation,
		transcache.Provider(req.Provider), req.SourceLang, req.TargetLang)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cache write failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type batchLookupRequest struct {
	Words      []string `json:"words"`
	SourceLang string   `json:"sourceLang"`
	TargetLang string   `json:"targetLang"`
}

type batchLookupResponse struct {
	Cached  map[string]string `json:"cached"`
	Missing []string          `json:"missing"`
}

// BatchLookup resolves a word list against the cache.
func (h *Handler) BatchLookup(w http.ResponseWriter, r *http.Request) {
	var req batchLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result := h.cache.GetBatch(r.Context(), req.Words, req.SourceLang, req.TargetLang)

	missing := result.Missing
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, batchLookupResponse{
		Cached:  result.Cached,
		Missing: missing,
	})
}

type batchStoreRequest struct {
	Translations map[string]string `json:"translations"`
	Provider     string            `json:"provider"`
	SourceLang   string            `json:"sourceLang"`
	TargetLang   string            `json:"targetLang"`
}

// BatchStore caches a map of caller-supplied translations.
func (h *Handler) BatchStore(w http.ResponseWriter, r *http.Request) {
	var req batchStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := h.cache.SetBatch(r.Context(), req.Translations,
		transcache.Provider(req.Provider), req.SourceLang, req.TargetLang)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cache write failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type warmRequest struct {
	HTML       string `json:"html"`
	SourceLang string `json:"sourceLang"`
	TargetLang string `json:"targetLang"`
}

// WarmLesson extracts vocabulary from lesson HTML and pre-populates the
// cache.
func (h *Handler) WarmLesson(w http.ResponseWriter, r *http.Request) {
	var req warmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.HTML == "" {
		writeError(w, http.StatusBadRequest, "html is required")
		return
	}

	result, err := h.warmer.WarmFromHTML(r.Context(), req.HTML, req.SourceLang, req.TargetLang)
	if err != nil {
		h.logger.Error("lesson warm-up failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "warm-up failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type statsResponse struct {
	TotalEntries    int            `json:"totalEntries"`
	ByProvider      map[string]int `json:"byProvider"`
	OldestTimestamp int64          `json:"oldestTimestamp"`
	NewestTimestamp int64          `json:"newestTimestamp"`
}

// GetStats reports the local tier's contents.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.cache.Stats()

	byProvider := make(map[string]int, len(stats.ByProvider))
	for provider, count := range stats.ByProvider {
		byProvider[string(provider)] = count
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalEntries:    stats.TotalEntries,
		ByProvider:      byProvider,
		OldestTimestamp: stats.OldestTimestamp,
		NewestTimestamp: stats.NewestTimestamp,
	})
}

// ClearExpired sweeps expired local entries.
func (h *Handler) ClearExpired(w http.ResponseWriter, r *http.Request) {
	removed := h.cache.ClearExpired()
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// ClearAll wipes the local tier.
func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.ClearAll(); err != nil {
		writeError(w, http.StatusInternalServerError, "clearing cache failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
