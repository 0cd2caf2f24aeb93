package auth

import (
	"context"
	"sync"
	"time"
)

// MemoryRevocationList はプロセス内で保持する失効リストです。
// 複数インスタンスで共有する場合は Redis 実装を使用してください。
type MemoryRevocationList struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]time.Time
}

// NewMemoryRevocationList は MemoryRevocationList を生成します。
func NewMemoryRevocationList(clock Clock) *MemoryRevocationList {
	if clock == nil {
		clock = realClock{}
	}
	return &MemoryRevocationList{clock: clock, entries: make(map[string]time.Time)}
}

// Revoke は tokenID を ttl の間失効させます。
func (l *MemoryRevocationList) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	for id, until := range l.entries {
		if !now.Before(until) {
			delete(l.entries, id)
		}
	}
	l.entries[tokenID] = now.Add(ttl)
	return nil
}

// IsRevoked は tokenID が失効中かどうかを返します。
func (l *MemoryRevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	until, ok := l.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !l.clock.Now().Before(until) {
		delete(l.entries, tokenID)
		return false, nil
	}
	return true, nil
}
