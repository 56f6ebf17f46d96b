package apitest

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// detailResponse is the error envelope the API uses: {"detail": ...}.
type detailResponse struct {
	Detail any `json:"detail"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeDetail writes an error with a string detail.
func writeDetail(w http.ResponseWriter, statusCode int, detail string) {
	writeJSON(w, statusCode, detailResponse{Detail: detail})
}

// writeMissingField mimics the structured 422 body for a missing form field.
func writeMissingField(w http.ResponseWriter, loc, field string) {
	writeJSON(w, http.StatusUnprocessableEntity, detailResponse{Detail: []map[string]any{{
		"loc":  []string{loc, field},
		"msg":  "Field required",
		"type": "missing",
	}}})
}
