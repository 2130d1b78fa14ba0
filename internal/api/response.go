package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// WriteJSON marshals v as JSON and writes it to w with the given status code.
// Encoding failures go to the request's logger, see WithLogger.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("failed to write JSON response")
	}
}
