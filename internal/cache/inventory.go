package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	FavoriteCountKeyPrefix = "review:%d:favorites_count"
	ItemMetadataKey        = "item:metadata"
	tokenBlacklistPrefix   = "blacklist:%s"
)

const (
	FavoriteCountTTL = 5 * time.Minute
	ItemMetadataTTL  = 10 * time.Minute
)

func FavoriteCountKey(reviewID uint) string {
	return fmt.Sprintf(FavoriteCountKeyPrefix, reviewID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateFavoriteCount(ctx context.Context, reviewID uint) {
	Invalidate(ctx, FavoriteCountKey(reviewID))
}

func InvalidateItemMetadata(ctx context.Context) {
	Invalidate(ctx, ItemMetadataKey)
}

// BlacklistToken marks a token's jti as revoked until its natural expiry.
// Once blacklisted a refresh token can never mint an access token again.
func BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil {
		return fmt.Errorf("redis unavailable, cannot blacklist token")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return client.Set(ctx, fmt.Sprintf(tokenBlacklistPrefix, jti), "1", ttl).Err()
}

// IsTokenBlacklisted reports whether the jti has been revoked.
// When Redis is unavailable tokens are treated as not blacklisted; use
// CheckTokenBlacklist where revocation must fail closed.
func IsTokenBlacklisted(ctx context.Context, jti string) bool {
	revoked, err := CheckTokenBlacklist(ctx, jti)
	return err == nil && revoked
}

// CheckTokenBlacklist reports whether the jti has been revoked, returning an
// error when Redis cannot answer.
func CheckTokenBlacklist(ctx context.Context, jti string) (bool, error) {
	if client == nil {
		return false, fmt.Errorf("redis unavailable, cannot check token blacklist")
	}
	n, err := client.Exists(ctx, fmt.Sprintf(tokenBlacklistPrefix, jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
