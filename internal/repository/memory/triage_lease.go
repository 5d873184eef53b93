package memory

import (
	"context"
	"sync"
	"time"
)

// TriageLease is an in-process lease store for tests.
type TriageLease struct {
	mu     sync.Mutex
	leases map[int64]time.Time
}

// NewTriageLease builds an empty lease store.
func NewTriageLease() *TriageLease {
	return &TriageLease{leases: make(map[int64]time.Time)}
}

func (l *TriageLease) Acquire(_ context.Context, ticketID, _ int64, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if expiry, held := l.leases[ticketID]; held && time.Now().Before(expiry) {
		return false, nil
	}
	l.leases[ticketID] = time.Now().Add(ttl)
	return true, nil
}

func (l *TriageLease) Release(_ context.Context, ticketID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.leases, ticketID)
	return nil
}
