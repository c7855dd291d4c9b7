// Package lock provides advisory, expiring leases keyed by string. A lease
// narrows contention before a storage transaction; it never replaces it.
package lock

import (
	"context"
	"errors"
	"time"

	"reservations/pkg/logger"

	"github.com/google/uuid"
)

var ErrWaitTimeout = errors.New("timed out waiting for lease")

const (
	minBackoff = 10 * time.Millisecond
	maxBackoff = 200 * time.Millisecond

	releaseTimeout = 2 * time.Second
)

// Backend is one atomic attempt to take or drop a lease.
type Backend interface {
	TryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

type Lease struct {
	Key       string
	Token     string
	ExpiresAt time.Time
}

type Locker interface {
	// Acquire blocks until the lease is held, ctx is done or the wait timeout passes.
	Acquire(ctx context.Context, key string) (*Lease, error)
	Release(lease *Lease)
}

type locker struct {
	backend Backend
	ttl     time.Duration
	wait    time.Duration
	log     *logger.Logger
}

func New(backend Backend, ttl, wait time.Duration, log *logger.Logger) Locker {
	return &locker{backend: backend, ttl: ttl, wait: wait, log: log}
}

func (l *locker) Acquire(ctx context.Context, key string) (*Lease, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	backoff := minBackoff

	for {
		ok, err := l.backend.TryAcquire(ctx, key, token, l.ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return &Lease{Key: key, Token: token, ExpiresAt: time.Now().Add(l.ttl)}, nil
		}

		if time.Now().Add(backoff).After(deadline) {
			return nil, ErrWaitTimeout
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// Release drops the lease on a fresh context so a cancelled request still
// frees it. Failures are logged; the lease expires on its own.
func (l *locker) Release(lease *Lease) {
	if lease == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := l.backend.Release(ctx, lease.Key, lease.Token); err != nil {
		l.log.Warn("Failed to release lease", "key", lease.Key, "error", err)
	}
}

type noop struct{}

// Noop returns a Locker that grants every lease immediately.
func Noop() Locker {
	return noop{}
}

func (noop) Acquire(_ context.Context, key string) (*Lease, error) {
	return &Lease{Key: key}, nil
}

func (noop) Release(*Lease) {}
