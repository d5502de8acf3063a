package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) Storage {
	t.Helper()

	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"), "test-encryption-key")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestProfileLifecycle(t *testing.T) {
	store := setupTestStore(t)

	profile := &Profile{Name: "alice", OpenRouterAPIKey: "sk-or-v1-alice-secret"}
	if err := store.CreateProfile(profile); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	if profile.ID == "" {
		t.Fatal("expected ID to be generated")
	}

	got, err := store.GetProfile(profile.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got.OpenRouterAPIKey != "sk-or-v1-alice-secret" {
		t.Errorf("expected decrypted key, got %q", got.OpenRouterAPIKey)
	}

	if err := store.SetOpenRouterKey(profile.ID, ""); err != nil {
		t.Fatalf("SetOpenRouterKey failed: %v", err)
	}
	got, err = store.GetProfile(profile.ID)
	if err != nil {
		t.Fatalf("GetProfile after clear failed: %v", err)
	}
	if got.HasOpenRouterKey() {
		t.Errorf("expected key to be cleared, got %q", got.OpenRouterAPIKey)
	}

	list, err := store.ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 profile, got %d", len(list))
	}

	if err := store.DeleteProfile(profile.ID); err != nil {
		t.Fatalf("DeleteProfile failed: %v", err)
	}
	if _, err := store.GetProfile(profile.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileWithoutKey(t *testing.T) {
	store := setupTestStore(t)

	profile := &Profile{Name: "bob"}
	if err := store.CreateProfile(profile); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	got, err := store.GetProfile(profile.ID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got.HasOpenRouterKey() {
		t.Error("expected no stored key")
	}
	if got.ToPreview().OpenRouterKeyPreview != "" {
		t.Errorf("expected empty preview, got %q", got.ToPreview().OpenRouterKeyPreview)
	}
}

func TestProfileInvalidInput(t *testing.T) {
	store := setupTestStore(t)

	if err := store.CreateProfile(&Profile{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := store.SetOpenRouterKey("prof_missing", "sk"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIssueAPIKey(t *testing.T) {
	store := setupTestStore(t)

	profile := &Profile{Name: "carol"}
	if err := store.CreateProfile(profile); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	plain, key, err := IssueAPIKey(store, profile.ID, "laptop", 0)
	if err != nil {
		t.Fatalf("IssueAPIKey failed: %v", err)
	}

	matches, err := store.GetAPIKeyByPrefix(ExtractKeyPrefix(plain))
	if err != nil {
		t.Fatalf("GetAPIKeyByPrefix failed: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != key.ID {
		t.Fatalf("expected to find issued key, got %d matches", len(matches))
	}
	if matches[0].ProfileID != profile.ID {
		t.Errorf("expected profile %q, got %q", profile.ID, matches[0].ProfileID)
	}

	valid, err := VerifyAPIKey(plain, matches[0].KeyHash)
	if err != nil || !valid {
		t.Errorf("expected stored hash to verify plaintext key (valid=%v, err=%v)", valid, err)
	}

	if err := store.UpdateAPIKeyLastUsed(key.ID); err != nil {
		t.Fatalf("UpdateAPIKeyLastUsed failed: %v", err)
	}
	if err := store.RevokeAPIKey(key.ID); err != nil {
		t.Fatalf("RevokeAPIKey failed: %v", err)
	}

	revoked, err := store.GetAPIKey(key.ID)
	if err != nil {
		t.Fatalf("GetAPIKey failed: %v", err)
	}
	if revoked.Usable() {
		t.Error("expected revoked key to be unusable")
	}
	if revoked.LastUsedAt == nil {
		t.Error("expected last_used_at to be set")
	}
}

func TestIssueAPIKeyUnknownProfile(t *testing.T) {
	store := setupTestStore(t)

	if _, _, err := IssueAPIKey(store, "prof_missing", "x", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestLogs(t *testing.T) {
	store := setupTestStore(t)

	profile := &Profile{Name: "dave"}
	if err := store.CreateProfile(profile); err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	entries := []*RequestLog{
		{RequestID: "r1", ProfileID: profile.ID, Model: "openai/gpt-4o", StatusCode: 200, PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		{RequestID: "r2", ProfileID: profile.ID, Model: "anthropic/claude-3.5-sonnet", StatusCode: 429, ErrorMessage: "rate limited"},
		{RequestID: "r3", Model: "openai/gpt-4o", StatusCode: 500},
	}
	for _, e := range entries {
		if err := store.LogRequest(e); err != nil {
			t.Fatalf("LogRequest failed: %v", err)
		}
	}

	byProfile, err := store.GetRequestLogs(LogFilter{ProfileID: profile.ID})
	if err != nil {
		t.Fatalf("GetRequestLogs failed: %v", err)
	}
	if len(byProfile) != 2 {
		t.Errorf("expected 2 logs for profile, got %d", len(byProfile))
	}

	byModel, err := store.GetRequestLogs(LogFilter{Model: "openai/gpt-4o"})
	if err != nil {
		t.Fatalf("GetRequestLogs failed: %v", err)
	}
	if len(byModel) != 2 {
		t.Errorf("expected 2 logs for model, got %d", len(byModel))
	}

	limited, err := store.GetRequestLogs(LogFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetRequestLogs failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 log with limit, got %d", len(limited))
	}
}

func TestClosedStorage(t *testing.T) {
	store := setupTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := store.GetProfile("x"); !errors.Is(err, ErrStorageClosed) {
		t.Errorf("expected ErrStorageClosed, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
