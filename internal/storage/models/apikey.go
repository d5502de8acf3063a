package models

import "time"

// ClientAPIKey identifies a caller and the profile it acts for.
type ClientAPIKey struct {
	ID         string     `json:"id"`
	ProfileID  string     `json:"profile_id"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`          // Argon2id hash (never exposed in JSON)
	KeyPrefix  string     `json:"key_prefix"` // First 11 chars (e.g., "cr_a1B2c3D4")
	RateLimit  int        `json:"rate_limit"` // Requests per minute (0 = unlimited)
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// IsExpired checks if the key has expired
func (k *ClientAPIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}

// Usable reports whether the key may authenticate a request.
func (k *ClientAPIKey) Usable() bool {
	return k.IsActive && !k.IsExpired()
}
