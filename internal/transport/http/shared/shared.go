// Package shared centralizes JSON response envelopes so every endpoint
// module answers in the same shape.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "arcanalyse/pkg/domain-errors"
)

// WriteJSON serializes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Errors
// without a code render as a generic internal failure; infrastructure detail
// never leaks to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)

	message := "internal server error"
	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		message = de.Message
	}

	WriteJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":  string(code),
		"detail": message,
	})
}
