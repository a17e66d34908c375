package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/llmstack/backend/internal/domain/connection"
)

// InMemoryActivationLock implements connection.ActivationLock within one process.
// It is suitable for single-instance deployments and testing.
type InMemoryActivationLock struct {
	mu        sync.Mutex
	expiresAt map[uuid.UUID]time.Time
	now       func() time.Time
}

// NewInMemoryActivationLock creates a new in-memory activation lock
func NewInMemoryActivationLock() *InMemoryActivationLock {
	return &InMemoryActivationLock{
		expiresAt: make(map[uuid.UUID]time.Time),
		now:       time.Now,
	}
}

// Acquire takes the lock for id unless a live holder exists
func (l *InMemoryActivationLock) Acquire(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, ok := l.expiresAt[id]; ok && now.Before(exp) {
		return false, nil
	}
	l.expiresAt[id] = now.Add(ttl)

	// Expired holders accumulate only until the next acquire sweeps them.
	for k, exp := range l.expiresAt {
		if !now.Before(exp) {
			delete(l.expiresAt, k)
		}
	}
	return true, nil
}

// Release frees the lock for id
func (l *InMemoryActivationLock) Release(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	delete(l.expiresAt, id)
	l.mu.Unlock()
	return nil
}

// Held reports the number of live locks (for testing/monitoring)
func (l *InMemoryActivationLock) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	n := 0
	for _, exp := range l.expiresAt {
		if now.Before(exp) {
			n++
		}
	}
	return n
}

var _ connection.ActivationLock = (*InMemoryActivationLock)(nil)
