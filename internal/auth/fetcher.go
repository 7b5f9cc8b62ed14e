package auth

import (
	"errors"
	"time"

	"github.com/ClassTrack/CT-Backend/internal/db"
	"github.com/ClassTrack/CT-Backend/internal/utils"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenInfo resolves bearer tokens for the auth middleware.
type TokenInfo struct{}

// FindTokenByValue looks up a presented bearer token by digest and loads
// the owning user's role. Inactive owners fail the lookup the same way a
// missing token does.
func (ti TokenInfo) FindTokenByValue(value string) (utils.TokenData, error) {
	digest := TokenDigest(value)

	var token AuthToken
	err := db.DB.First(&token, "digest = ?", digest).Error
	if err != nil {
		return utils.TokenData{}, ErrTokenNotFound
	}

	var user User
	if err := db.DB.First(&user, "id = ?", token.UserID).Error; err != nil {
		return utils.TokenData{}, ErrTokenNotFound
	}
	if !user.IsActive {
		return utils.TokenData{}, ErrTokenNotFound
	}

	return utils.TokenData{
		UserID:    user.ID,
		Role:      user.Role,
		Digest:    digest,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// PurgeExpiredTokens removes tokens past their expiry. Called
// opportunistically from logout-all; a cron would do the same thing.
func PurgeExpiredTokens() error {
	return db.DB.Delete(&AuthToken{}, "expires_at < ?", time.Now()).Error
}
