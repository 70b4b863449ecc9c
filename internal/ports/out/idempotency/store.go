package idempotency

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies the logical request a key was first used for.
//
// Keys are scoped to the subject and the route, so two callers can never observe
// each other's stored responses. Route is the HTTP method plus the path template
// (e.g. "POST /travels").
type Fingerprint struct {
	Key     Key
	Subject domain.SubjectID
	Route   string
}

// Record is the stored response we can replay for a duplicate request.
//
// BodyHash is the canonical hash of the request that produced the response; a
// reuse of the same fingerprint with a different hash is a conflict.
type Record struct {
	BodyHash    string
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records for replaying responses on retries.
type Store interface {
	// Get returns ok=false when nothing is stored for fp.
	Get(ctx context.Context, fp Fingerprint) (rec Record, ok bool, err error)
	// Put stores rec for fp, replacing any previous record.
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
