package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError answers with the API's failure envelope.
func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   msg,
		"kind":    kind,
	})
}
