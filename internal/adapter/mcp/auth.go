package mcp

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// presentedKey returns the credential sent in Authorization (with or
// without the Bearer scheme) or X-API-Key.
func presentedKey(r *http.Request) string {
	if v := r.Header.Get("Authorization"); v != "" {
		return strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// AuthMiddleware admits requests carrying apiKey. An empty apiKey disables
// the check. A missing key is 401, a wrong one 403.
func AuthMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	want := []byte(apiKey)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := presentedKey(r)
		switch {
		case got == "":
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
		case subtle.ConstantTimeCompare([]byte(got), want) != 1:
			slog.WarnContext(r.Context(), "mcp: rejected api key", "remote_addr", r.RemoteAddr)
			http.Error(w, "invalid credentials", http.StatusForbidden)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
