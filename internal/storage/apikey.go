package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	// APIKeyPrefix marks every chatrelay client key.
	APIKeyPrefix = "cr_"
	// APIKeyLength is the number of secret characters after the prefix.
	APIKeyLength = 64
	// APIKeyPrefixLen is how much of a key is stored in clear for lookup.
	APIKeyPrefixLen = len(APIKeyPrefix) + 8
)

const base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// maxUnbiased is the largest multiple of 62 that fits in a byte; random
// bytes at or above it are discarded so every character is equally likely.
const maxUnbiased = 256 - 256%len(base62)

// IssueAPIKey generates a client key for a profile, stores its hash and
// returns the plaintext key. The plaintext is not recoverable afterwards.
func IssueAPIKey(store Storage, profileID, name string, rateLimit int) (string, *ClientAPIKey, error) {
	secret, err := randomBase62(APIKeyLength)
	if err != nil {
		return "", nil, fmt.Errorf("generate key: %w", err)
	}
	plain := APIKeyPrefix + secret

	hash, err := HashAPIKey(plain, nil)
	if err != nil {
		return "", nil, err
	}

	key := &ClientAPIKey{
		ProfileID: profileID,
		Name:      name,
		KeyHash:   hash,
		KeyPrefix: ExtractKeyPrefix(plain),
		RateLimit: rateLimit,
		IsActive:  true,
	}
	if err := store.CreateAPIKey(key); err != nil {
		return "", nil, err
	}

	return plain, key, nil
}

// ExtractKeyPrefix returns the lookup prefix of a client key.
func ExtractKeyPrefix(key string) string {
	return key[:min(len(key), APIKeyPrefixLen)]
}

// KeyFingerprint is a fast digest of a plaintext key. It lets a verified key
// be recognised again without repeating the argon2id check; it is never stored.
func KeyFingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func randomBase62(n int) (string, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		buf, err := GenerateRandomBytes(uint32(n))
		if err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, base62[int(b)%len(base62)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
