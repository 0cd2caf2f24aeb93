package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenKeyPrefix = "daily-report:revoked:"

// RevocationList はログアウト済みトークンを Redis に保持する失効リストです。
// キーの有効期限はトークンの残り有効期間に合わせます。
type RevocationList struct {
	client redis.UniversalClient
}

// NewRevocationList は RevocationList を生成します。
func NewRevocationList(client redis.UniversalClient) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke は tokenID を ttl の間失効させます。
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	return l.client.Set(ctx, revokedTokenKeyPrefix+tokenID, "1", ttl).Err()
}

// IsRevoked は tokenID が失効中かどうかを返します。
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	err := l.client.Get(ctx, revokedTokenKeyPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
