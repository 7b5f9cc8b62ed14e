package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/ClassTrack/CT-Backend/internal/db"
)

// TokenDigest hashes a bearer token value for storage and lookup.
func TokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IssueToken creates and persists a fresh auth token for the user,
// returning the plaintext value exactly once.
func IssueToken(userID uint, ttl time.Duration) (string, AuthToken, error) {
	plaintext := uuid.NewString()

	token := AuthToken{
		Digest:    TokenDigest(plaintext),
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.DB.Create(&token).Error; err != nil {
		return "", AuthToken{}, err
	}
	return plaintext, token, nil
}

// RevokeToken deletes a single token by digest. Deleting an absent token
// is not an error, so logout stays idempotent.
func RevokeToken(digest string) error {
	return db.DB.Delete(&AuthToken{}, "digest = ?", digest).Error
}

// RevokeAllTokens deletes every token owned by the user.
func RevokeAllTokens(userID uint) error {
	return db.DB.Delete(&AuthToken{}, "user_id = ?", userID).Error
}
