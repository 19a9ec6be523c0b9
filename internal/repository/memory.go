package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryRateLimiter запасной ограничитель частоты в памяти процесса.
type MemoryRateLimiter struct {
	entries sync.Map
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{}
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemoryRateLimiter) Allow(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	val, _ := r.entries.LoadOrStore(userID, &rateLimitEntry{})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if now.After(entry.expiresAt) {
		entry.count = 1
		entry.expiresAt = now.Add(window)
	} else {
		entry.count++
	}

	return entry.count <= limit, nil
}
