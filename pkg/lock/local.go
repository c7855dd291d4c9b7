package lock

import (
	"context"
	"sync"
	"time"
)

type localLease struct {
	token     string
	expiresAt time.Time
}

type localBackend struct {
	mu     sync.Mutex
	leases map[string]localLease
}

// NewLocalBackend keeps leases in process memory. It only serializes callers
// inside one process; use the mongo or redis backend across replicas.
func NewLocalBackend() Backend {
	return &localBackend{leases: make(map[string]localLease)}
}

func (b *localBackend) TryAcquire(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if held, ok := b.leases[key]; ok && now.Before(held.expiresAt) {
		return false, nil
	}
	b.leases[key] = localLease{token: token, expiresAt: now.Add(ttl)}
	return true, nil
}

func (b *localBackend) Release(_ context.Context, key, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if held, ok := b.leases[key]; ok && held.token == token {
		delete(b.leases, key)
	}
	return nil
}
