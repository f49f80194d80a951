package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const revokedPrefix = "jwt:revoked:"

// TokenBlacklist records logged-out tokens in Redis until they expire.
// With a nil client revocation is disabled and every token stays valid until expiry.
type TokenBlacklist struct {
	rdb *redis.Client
}

func NewTokenBlacklist(rdb *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rdb: rdb}
}

func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedPrefix + hex.EncodeToString(sum[:])
}

// Revoke blacklists token until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if b.rdb == nil {
		log.Warn().Msg("token revocation requested but redis is not configured")
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, revokedKey(token), 1, ttl).Err()
}

// IsRevoked reports whether token was logged out.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if b.rdb == nil {
		return false, nil
	}
	n, err := b.rdb.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
