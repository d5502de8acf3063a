// Package storage provides the storage interface and implementations.
package storage

import (
	"github.com/mandalnilabja/chatrelay/internal/storage/encryption"
	"github.com/mandalnilabja/chatrelay/internal/storage/models"
	"github.com/mandalnilabja/chatrelay/internal/storage/sqlite"
)

// Re-export types from models package for convenience
type (
	Profile        = models.Profile
	ProfilePreview = models.ProfilePreview
	ClientAPIKey   = models.ClientAPIKey
	RequestLog     = models.RequestLog
	LogFilter      = models.LogFilter
)

// Re-export functions from models package
var MaskAPIKey = models.MaskAPIKey

// Re-export errors from sqlite package
var (
	ErrNotFound        = sqlite.ErrNotFound
	ErrInvalidInput    = sqlite.ErrInvalidInput
	ErrStorageClosed   = sqlite.ErrStorageClosed
	ErrEncryptionError = sqlite.ErrEncryptionError
)

// Storage defines the interface for persistent data storage
type Storage interface {
	// Profile operations
	CreateProfile(p *models.Profile) error
	GetProfile(id string) (*models.Profile, error)
	ListProfiles() ([]*models.Profile, error)
	SetOpenRouterKey(profileID, apiKey string) error
	DeleteProfile(id string) error

	// Client API key operations
	CreateAPIKey(key *models.ClientAPIKey) error
	GetAPIKey(id string) (*models.ClientAPIKey, error)
	GetAPIKeyByPrefix(prefix string) ([]*models.ClientAPIKey, error)
	ListAPIKeys(profileID string) ([]*models.ClientAPIKey, error)
	RevokeAPIKey(id string) error
	UpdateAPIKeyLastUsed(id string) error

	// Request logging operations
	LogRequest(log *models.RequestLog) error
	GetRequestLogs(filter models.LogFilter) ([]*models.RequestLog, error)

	// Maintenance operations
	Close() error
}

// NewSQLiteStorage creates a new SQLite storage instance.
// encryptionKey seeds the AES key protecting stored OpenRouter keys.
func NewSQLiteStorage(dbPath, encryptionKey string) (Storage, error) {
	return sqlite.New(dbPath, encryption.New(encryptionKey))
}
