package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"medstore/m/internal/apperr"
	"medstore/m/internal/inventory"
)

// fail maps a service error to a status code and JSON body.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		short *inventory.ShortageError
		v     *apperr.Validation
	)
	switch {
	case errors.As(err, &short):
		respondJSON(w, http.StatusConflict, map[string]any{"error": short.Error(), "shortfalls": short.Shortfalls})
	case errors.As(err, &v):
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": v.Error(), "problems": v.Problems})
	case errors.Is(err, apperr.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// queryInt reads a positive integer query parameter, or fallback.
func queryInt(r *http.Request, key string, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}
