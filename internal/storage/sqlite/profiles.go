package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mandalnilabja/chatrelay/internal/storage/models"
)

// CreateProfile stores a new profile. The OpenRouter key may be empty.
func (s *Storage) CreateProfile(p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}
	if p.Name == "" {
		return ErrInvalidInput
	}

	if p.ID == "" {
		p.ID = generateID("prof")
	}

	encryptedKey, err := s.encryptKey(p.OpenRouterAPIKey)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO profiles (id, name, openrouter_api_key, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, encryptedKey, p.CreatedAt, p.UpdatedAt)

	return err
}

// GetProfile retrieves a profile by ID with its OpenRouter key decrypted.
func (s *Storage) GetProfile(id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	var p models.Profile
	var encryptedKey string

	err := s.db.QueryRow(`
		SELECT id, name, openrouter_api_key, created_at, updated_at
		FROM profiles WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &encryptedKey, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if p.OpenRouterAPIKey, err = s.decryptKey(encryptedKey); err != nil {
		return nil, err
	}

	return &p, nil
}

// ListProfiles retrieves all profiles, newest first.
func (s *Storage) ListProfiles() ([]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT id, name, openrouter_api_key, created_at, updated_at
		FROM profiles ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		var p models.Profile
		var encryptedKey string

		if err := rows.Scan(&p.ID, &p.Name, &encryptedKey, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		if p.OpenRouterAPIKey, err = s.decryptKey(encryptedKey); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}

	return profiles, rows.Err()
}

// SetOpenRouterKey replaces (or clears, with "") a profile's OpenRouter key.
func (s *Storage) SetOpenRouterKey(profileID, apiKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	encryptedKey, err := s.encryptKey(apiKey)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`
		UPDATE profiles SET openrouter_api_key = ?, updated_at = ? WHERE id = ?
	`, encryptedKey, time.Now().UTC(), profileID)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteProfile removes a profile and its client keys.
func (s *Storage) DeleteProfile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	result, err := s.db.Exec("DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// encryptKey leaves an empty key empty so "no key" stays visible in the table.
func (s *Storage) encryptKey(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	encrypted, err := s.encryptor.Encrypt(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionError, err)
	}
	return encrypted, nil
}

func (s *Storage) decryptKey(encrypted string) (string, error) {
	if encrypted == "" {
		return "", nil
	}
	plain, err := s.encryptor.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncryptionError, err)
	}
	return plain, nil
}
