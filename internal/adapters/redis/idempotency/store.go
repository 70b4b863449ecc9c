package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/Overland-East-Bay/travel-log-api/internal/adapters/redis"
	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/idempotency"
)

// Store is a Redis implementation of idempotency.Store.
// Records are JSON values under a hashed fingerprint key and expire via the key TTL.
type Store struct {
	client goredis.UniversalClient
	keys   redisadapter.Keyspace
	ttl    time.Duration
}

// NewStore returns a store whose records expire after ttl (ttl <= 0 keeps them).
func NewStore(client goredis.UniversalClient, keyPrefix string, ttl time.Duration) *Store {
	return &Store{client: client, keys: redisadapter.NewKeyspace(keyPrefix), ttl: ttl}
}

type storedRecord struct {
	BodyHash    string    `json:"bodyHash"`
	StatusCode  int       `json:"statusCode"`
	ContentType string    `json:"contentType"`
	Body        []byte    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

// fingerprintKey hashes the fingerprint so caller-chosen keys cannot collide
// across subjects by embedding separators.
func (s *Store) fingerprintKey(fp idempotency.Fingerprint) string {
	h := sha256.New()
	for _, part := range []string{string(fp.Key), string(fp.Subject), fp.Route} {
		fmt.Fprintf(h, "%d:%s;", len(part), part)
	}
	return s.keys.Key("idem", hex.EncodeToString(h.Sum(nil)))
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	raw, err := s.client.Get(ctx, s.fingerprintKey(fp)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return idempotency.Record{}, false, nil
		}
		return idempotency.Record{}, false, fmt.Errorf("get idempotency record: %w", err)
	}
	var sr storedRecord
	if err := json.Unmarshal(raw, &sr); err != nil {
		return idempotency.Record{}, false, fmt.Errorf("decode idempotency record: %w", err)
	}
	return idempotency.Record{
		BodyHash:    sr.BodyHash,
		StatusCode:  sr.StatusCode,
		ContentType: sr.ContentType,
		Body:        sr.Body,
		CreatedAt:   sr.CreatedAt.UTC(),
	}, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	raw, err := json.Marshal(storedRecord{
		BodyHash:    rec.BodyHash,
		StatusCode:  rec.StatusCode,
		ContentType: rec.ContentType,
		Body:        rec.Body,
		CreatedAt:   createdAt.UTC(),
	})
	if err != nil {
		return err
	}
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.fingerprintKey(fp), raw, ttl).Err(); err != nil {
		return fmt.Errorf("put idempotency record: %w", err)
	}
	return nil
}
