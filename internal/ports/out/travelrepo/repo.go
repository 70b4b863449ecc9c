package travelrepo

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
)

// Travel is the persistence shape used by the travel repository.
// It is not an HTTP DTO.
type Travel struct {
	ID      domain.TravelID
	OwnerID domain.SubjectID

	Destination string
	Description string

	// DepartureDate is stored as a calendar date (midnight UTC).
	DepartureDate time.Time
	DurationDays  int
}

// Fields are the columns replaced by FindAndUpdate.
type Fields struct {
	Destination   string
	Description   string
	DepartureDate time.Time
	DurationDays  int
}

// Repository provides ownership-scoped access to persisted travel records.
//
// Every mutation of an existing record goes through a fused primitive that matches
// id AND owner in a single atomic step. Implementations must not split the
// match and the mutation into separate round trips that another writer could
// interleave with.
//
// A miss on a fused primitive returns ErrNotFound regardless of whether the id
// exists under another owner. Ids that are not well-formed for the backend are
// also a miss.
type Repository interface {
	// ListByOwner returns every record owned by owner. Order is unspecified.
	// It returns an empty, non-nil slice when owner has no records.
	ListByOwner(ctx context.Context, owner domain.SubjectID) ([]Travel, error)

	// Insert persists a new record. It returns ErrAlreadyExists if the id is taken.
	Insert(ctx context.Context, t Travel) error

	// FindAndUpdate replaces the mutable fields of the record matching (id, owner)
	// and returns the updated record.
	FindAndUpdate(ctx context.Context, id domain.TravelID, owner domain.SubjectID, f Fields) (Travel, error)

	// FindAndDelete removes the record matching (id, owner) and returns it.
	FindAndDelete(ctx context.Context, id domain.TravelID, owner domain.SubjectID) (Travel, error)
}
