package http

import (
	"context"
	"net/http"
	"time"

	"github.com/eltovar/DeiiwoCoffee/internal/locale"
	"go.uber.org/zap"
)

type PreferencesHandler struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewPreferencesHandler(timeout time.Duration, logger *zap.Logger) *PreferencesHandler {
	return &PreferencesHandler{timeout: timeout, logger: logger}
}

type LanguageDTO struct {
	Lang string `json:"lang"`
}

func (h *PreferencesHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	respondJSON(w, http.StatusOK, LanguageDTO{Lang: string(sess.Flow.Lang())})
}

// SetLanguage persists the language and applies it to the session's checkout messages.
// The special value "toggle" switches between the two supported languages.
func (h *PreferencesHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	sess := sessionFromContext(r.Context())

	var req LanguageDTO
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var lang locale.Lang
	if req.Lang == "toggle" {
		lang = sess.Flow.Lang().Toggle()
	} else {
		l, err := locale.Parse(req.Lang)
		if err != nil {
			respondError(w, http.StatusBadRequest, "unsupported_language", err.Error())
			return
		}
		lang = l
	}

	sess.Flow.SetLang(lang)
	if err := sess.Prefs.Set(ctx, lang); err != nil {
		h.logger.Warn("failed to persist language", zap.String("session_id", sess.ID), zap.Error(err))
	}

	respondJSON(w, http.StatusOK, LanguageDTO{Lang: string(lang)})
}
