package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/clock"
	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/idempotency"
)

// Store is an in-memory implementation of idempotency.Store.
// It is safe for concurrent use. Records older than the TTL are treated as absent
// and dropped lazily on access.
type Store struct {
	clk clock.Clock
	ttl time.Duration

	mu sync.Mutex
	m  map[idempotency.Fingerprint]idempotency.Record
}

// NewStore returns a store whose records expire after ttl. A ttl <= 0 keeps records forever.
func NewStore(clk clock.Clock, ttl time.Duration) *Store {
	return &Store{
		clk: clk,
		ttl: ttl,
		m:   make(map[idempotency.Fingerprint]idempotency.Record),
	}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.m[fp]
	if !ok {
		return idempotency.Record{}, false, nil
	}
	if s.expired(rec) {
		delete(s.m, fp)
		return idempotency.Record{}, false, nil
	}
	rec.Body = append([]byte(nil), rec.Body...)
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.clk.Now().UTC()
	}
	rec.Body = append([]byte(nil), rec.Body...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[fp] = rec
	return nil
}

func (s *Store) expired(rec idempotency.Record) bool {
	if s.ttl <= 0 {
		return false
	}
	return !s.clk.Now().Before(rec.CreatedAt.Add(s.ttl))
}
