package storage

import (
	"strings"
	"testing"
)

// fastParams keeps the suite quick; production uses DefaultArgon2Params.
func fastParams() *Argon2Params {
	return &Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestHashAPIKeyFormat(t *testing.T) {
	hash, err := HashAPIKey("cr_example", fastParams())
	if err != nil {
		t.Fatalf("HashAPIKey failed: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("unexpected hash format: %s", hash)
	}
	if parts := strings.Split(hash, "$"); len(parts) != 6 {
		t.Errorf("expected 6 parts, got %d", len(parts))
	}
}

func TestHashAPIKeyDefaultParams(t *testing.T) {
	hash, err := HashAPIKey("cr_example", nil)
	if err != nil {
		t.Fatalf("HashAPIKey with nil params failed: %v", err)
	}
	if !strings.Contains(hash, "m=19456,t=2,p=1") {
		t.Errorf("expected default params in hash, got %s", hash)
	}
}

func TestHashAPIKeySalted(t *testing.T) {
	a, err := HashAPIKey("cr_same", fastParams())
	if err != nil {
		t.Fatalf("first hash failed: %v", err)
	}
	b, err := HashAPIKey("cr_same", fastParams())
	if err != nil {
		t.Fatalf("second hash failed: %v", err)
	}
	if a == b {
		t.Error("hashing the same key twice should produce different hashes")
	}
}

func TestVerifyAPIKey(t *testing.T) {
	hash, err := HashAPIKey("cr_correct", fastParams())
	if err != nil {
		t.Fatalf("HashAPIKey failed: %v", err)
	}

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"matching key", "cr_correct", true},
		{"other key", "cr_wrong", false},
		{"empty key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyAPIKey(tt.key, hash)
			if err != nil {
				t.Fatalf("VerifyAPIKey failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestVerifyAPIKeyInvalidHash(t *testing.T) {
	testCases := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"wrong format", "notahash"},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"wrong version", "$argon2id$v=16$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=65536"},
		{"invalid base64 salt", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := VerifyAPIKey("cr_key", tc.hash); err == nil {
				t.Error("expected error for invalid hash")
			}
		})
	}
}

func TestGenerateRandomBytes(t *testing.T) {
	for _, length := range []uint32{16, 32, 64} {
		b, err := GenerateRandomBytes(length)
		if err != nil {
			t.Fatalf("GenerateRandomBytes(%d) failed: %v", length, err)
		}
		if uint32(len(b)) != length {
			t.Errorf("expected %d bytes, got %d", length, len(b))
		}
	}
}
