// Package models contains data models for storage operations.
package models

import "time"

// Profile is a chat user's settings record. The OpenRouter key is encrypted at rest.
type Profile struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	OpenRouterAPIKey string    `json:"openrouter_api_key"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProfilePreview is a safe representation of a profile (key masked)
type ProfilePreview struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	OpenRouterKeyPreview string    `json:"openrouter_key_preview"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// MaskAPIKey creates a masked preview of an API key
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 10 {
		return "***"
	}
	return key[:6] + "..." + key[len(key)-4:]
}

// HasOpenRouterKey reports whether a key is stored.
func (p *Profile) HasOpenRouterKey() bool {
	return p.OpenRouterAPIKey != ""
}

// ToPreview converts a Profile to a safe ProfilePreview
func (p *Profile) ToPreview() *ProfilePreview {
	return &ProfilePreview{
		ID:                   p.ID,
		Name:                 p.Name,
		OpenRouterKeyPreview: MaskAPIKey(p.OpenRouterAPIKey),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}
