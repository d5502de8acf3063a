// Package provider resolves upstream credentials for chat requests.
package provider

import (
	"errors"
	"fmt"

	"github.com/mandalnilabja/chatrelay/internal/storage"
)

// ErrCredentialNotFound means the profile has no OpenRouter key on record.
var ErrCredentialNotFound = errors.New("OpenRouter API Key not found")

// CredentialResolver resolves OpenRouter keys by profile ID.
//
// Keys are read from storage on every call. Profiles are edited by the CLI
// in a separate process, so an in-memory copy here would keep relaying a key
// after it was cleared or replaced.
type CredentialResolver struct {
	storage storage.Storage
}

// NewCredentialResolver creates a resolver backed by store.
func NewCredentialResolver(store storage.Storage) *CredentialResolver {
	return &CredentialResolver{storage: store}
}

// Resolve returns the OpenRouter key stored on a profile.
// Missing profiles and empty keys yield an error wrapping ErrCredentialNotFound.
func (r *CredentialResolver) Resolve(profileID string) (string, error) {
	if profileID == "" {
		return "", fmt.Errorf("%w: no profile", ErrCredentialNotFound)
	}

	profile, err := r.storage.GetProfile(profileID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%w: profile %s", ErrCredentialNotFound, profileID)
	}
	if err != nil {
		return "", fmt.Errorf("load profile %s: %w", profileID, err)
	}
	if !profile.HasOpenRouterKey() {
		return "", fmt.Errorf("%w: profile %s", ErrCredentialNotFound, profileID)
	}

	return profile.OpenRouterAPIKey, nil
}
