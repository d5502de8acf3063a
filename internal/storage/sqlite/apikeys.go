package sqlite

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/mandalnilabja/chatrelay/internal/storage/models"
)

const apiKeyColumns = `id, profile_id, name, key_hash, key_prefix, rate_limit, is_active, last_used_at, created_at, expires_at`

// CreateAPIKey stores a new client API key for an existing profile.
func (s *Storage) CreateAPIKey(key *models.ClientAPIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if key.ProfileID == "" || key.KeyHash == "" || key.KeyPrefix == "" {
		return ErrInvalidInput
	}

	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM profiles WHERE id = ?", key.ProfileID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	key.CreatedAt = time.Now().UTC()

	_, err = s.db.Exec(`
		INSERT INTO api_keys (id, profile_id, name, key_hash, key_prefix, rate_limit, is_active, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, key.ID, key.ProfileID, key.Name, key.KeyHash, key.KeyPrefix,
		key.RateLimit, key.IsActive, key.ExpiresAt, key.CreatedAt)

	return err
}

// GetAPIKey retrieves an API key by ID
func (s *Storage) GetAPIKey(id string) (*models.ClientAPIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys, err := scanAPIKeys(rows)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrNotFound
	}
	return keys[0], nil
}

// GetAPIKeyByPrefix retrieves API keys matching a prefix
func (s *Storage) GetAPIKeyByPrefix(prefix string) ([]*models.ClientAPIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = ?`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAPIKeys(rows)
}

// ListAPIKeys returns the keys of one profile, or all keys when profileID is empty.
func (s *Storage) ListAPIKeys(profileID string) ([]*models.ClientAPIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	query := `SELECT ` + apiKeyColumns + ` FROM api_keys`
	var args []any
	if profileID != "" {
		query += " WHERE profile_id = ?"
		args = append(args, profileID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAPIKeys(rows)
}

// RevokeAPIKey deactivates a key without deleting it.
func (s *Storage) RevokeAPIKey(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	result, err := s.db.Exec("UPDATE api_keys SET is_active = 0 WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateAPIKeyLastUsed updates the last_used_at timestamp for an API key
func (s *Storage) UpdateAPIKeyLastUsed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec("UPDATE api_keys SET last_used_at = ? WHERE id = ?", time.Now().UTC(), id)
	return err
}

// scanAPIKeys scans rows selected with apiKeyColumns.
func scanAPIKeys(rows *sql.Rows) ([]*models.ClientAPIKey, error) {
	var keys []*models.ClientAPIKey
	for rows.Next() {
		var key models.ClientAPIKey
		var lastUsedAt, expiresAt sql.NullTime

		err := rows.Scan(
			&key.ID, &key.ProfileID, &key.Name, &key.KeyHash, &key.KeyPrefix,
			&key.RateLimit, &key.IsActive, &lastUsedAt, &key.CreatedAt, &expiresAt,
		)
		if err != nil {
			return nil, err
		}

		if lastUsedAt.Valid {
			key.LastUsedAt = &lastUsedAt.Time
		}
		if expiresAt.Valid {
			key.ExpiresAt = &expiresAt.Time
		}
		keys = append(keys, &key)
	}

	return keys, rows.Err()
}
