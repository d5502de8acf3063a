// Package auth identifies callers by their chatrelay client API key.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/mandalnilabja/chatrelay/internal/storage"
	"github.com/mandalnilabja/chatrelay/internal/types"
)

// CacheTTL is how long a verified key skips the argon2id check.
// The key's status is still read from storage on every request.
const CacheTTL = 5 * time.Minute

// APIKeyContextKey is the context key for authenticated API key.
type APIKeyContextKey struct{}

// CachedAPIKey holds validated key info for caching.
type CachedAPIKey struct {
	Key         *storage.ClientAPIKey
	Fingerprint string
	ValidUntil  time.Time
}

func (c *CachedAPIKey) matches(apiKey string) bool {
	if !time.Now().Before(c.ValidUntil) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Fingerprint), []byte(storage.KeyFingerprint(apiKey))) == 1
}

// NewCache creates the ristretto cache used by APIKeyAuth.
func NewCache() (*ristretto.Cache[string, *CachedAPIKey], error) {
	return ristretto.NewCache(&ristretto.Config[string, *CachedAPIKey]{
		NumCounters: 1e4,
		MaxCost:     1 << 10,
		BufferItems: 64,
	})
}

// APIKeyAuth middleware authenticates requests using chatrelay client keys.
// Only "cr_" keys are accepted; the verified key, and so its profile, is
// placed in the request context. Keys are revoked by another process (the
// CLI), so a cached key is re-read from storage before it is trusted.
// revoked, if set, is called with the ID of a key found revoked or expired.
func APIKeyAuth(store storage.Storage, cache *ristretto.Cache[string, *CachedAPIKey], revoked func(keyID string)) func(http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, keyID string) {
		if revoked != nil {
			revoked(keyID)
		}
		writeUnauthorized(w, "invalid or expired API key")
	}

	return func(next http.Handler) http.Handler {
		serve := func(w http.ResponseWriter, r *http.Request, key *storage.ClientAPIKey) {
			go func(id string) { _ = store.UpdateAPIKeyLastUsed(id) }(key.ID)
			next.ServeHTTP(w, r.WithContext(WithAPIKey(r.Context(), key)))
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "API key required")
				return
			}
			if !strings.HasPrefix(apiKey, storage.APIKeyPrefix) {
				writeUnauthorized(w, "only chatrelay API keys (cr_*) are accepted")
				return
			}

			prefix := storage.ExtractKeyPrefix(apiKey)
			cacheKey := "apikey:" + prefix

			if cache != nil {
				if cached, found := cache.Get(cacheKey); found && cached.matches(apiKey) {
					current, err := store.GetAPIKey(cached.Key.ID)
					if err == nil && current.Usable() {
						serve(w, r, current)
						return
					}
					cache.Del(cacheKey)
					if err == nil || errors.Is(err, storage.ErrNotFound) {
						reject(w, cached.Key.ID)
						return
					}
				}
			}

			keys, err := store.GetAPIKeyByPrefix(prefix)
			if err != nil || len(keys) == 0 {
				writeUnauthorized(w, "invalid API key")
				return
			}

			var validKey *storage.ClientAPIKey
			for _, k := range keys {
				if valid, _ := storage.VerifyAPIKey(apiKey, k.KeyHash); valid {
					validKey = k
					break
				}
			}

			if validKey == nil {
				writeUnauthorized(w, "invalid API key")
				return
			}
			if !validKey.Usable() {
				reject(w, validKey.ID)
				return
			}

			if cache != nil {
				cache.SetWithTTL(cacheKey, &CachedAPIKey{
					Key:         validKey,
					Fingerprint: storage.KeyFingerprint(apiKey),
					ValidUntil:  time.Now().Add(CacheTTL),
				}, 1, CacheTTL)
			}

			serve(w, r, validKey)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}

// WithAPIKey returns a context carrying the authenticated key.
func WithAPIKey(ctx context.Context, key *storage.ClientAPIKey) context.Context {
	return context.WithValue(ctx, APIKeyContextKey{}, key)
}

// GetAPIKey retrieves the authenticated API key from context.
func GetAPIKey(ctx context.Context) *storage.ClientAPIKey {
	if key, ok := ctx.Value(APIKeyContextKey{}).(*storage.ClientAPIKey); ok {
		return key
	}
	return nil
}

// ProfileID returns the profile the authenticated caller acts for, or "".
func ProfileID(ctx context.Context) string {
	if key := GetAPIKey(ctx); key != nil {
		return key.ProfileID
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="chatrelay"`)
	types.WriteError(w, http.StatusUnauthorized, message)
}
