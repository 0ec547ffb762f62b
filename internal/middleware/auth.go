package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Strob0t/PlanForge/internal/cache"
	"github.com/Strob0t/PlanForge/internal/domain"
)

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health": true,
}

// OwnerKey binds a bcrypt-hashed API key to a plan owner.
type OwnerKey struct {
	OwnerID string
	Hash    string
}

// Authenticator resolves API keys to owners. Successful verifications are
// memoized by the SHA-256 of the key so bcrypt runs once per key per TTL.
type Authenticator struct {
	keys     []OwnerKey
	verified *cache.TTL[string]
}

// NewAuthenticator creates an authenticator over the configured keys.
func NewAuthenticator(keys []OwnerKey, ttl time.Duration) *Authenticator {
	return &Authenticator{
		keys:     keys,
		verified: cache.New[string](cache.Options{DefaultTTL: ttl}),
	}
}

// Authenticate returns the owner of key.
func (a *Authenticator) Authenticate(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(key))
	digest := hex.EncodeToString(sum[:])
	if owner, ok := a.verified.Get(digest); ok {
		return owner, true
	}

	for _, k := range a.keys {
		if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(key)) == nil {
			a.verified.Set(digest, k.OwnerID)
			return k.OwnerID, true
		}
	}
	return "", false
}

// HashKey returns the bcrypt hash to configure for key.
func HashKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Owner returns middleware that authenticates the caller by X-API-Key or
// Authorization: Bearer and stores the owner in the context. The websocket
// endpoint also accepts ?token=. When enabled is false every request runs
// as domain.LocalOwnerID.
func Owner(auth *Authenticator, enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r.WithContext(domain.WithOwner(r.Context(), domain.LocalOwnerID)))
				return
			}

			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := credential(r)
			if key == "" {
				writeAuthError(w, http.StatusUnauthorized, "authorization required")
				return
			}
			owner, ok := auth.Authenticate(key)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r.WithContext(domain.WithOwner(r.Context(), owner)))
		})
	}
}

func credential(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if r.URL.Path == "/ws" {
		return r.URL.Query().Get("token")
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	writeError(w, status, "unauthorized", msg)
}
