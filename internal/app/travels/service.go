package travels

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/travelrepo"
)

// Service implements the ownership-scoped travel use-cases.
//
// Every method takes the caller's verified subject. Owner values supplied by the
// client are never consulted. The service holds no per-request state and never
// reads a record before mutating it: updates and deletes are a single fused
// store call matched on (id, owner).
type Service struct {
	travels travelrepo.Repository

	newTravelID func() domain.TravelID
}

func NewService(travelsRepo travelrepo.Repository) *Service {
	return &Service{
		travels: travelsRepo,
		newTravelID: func() domain.TravelID {
			return domain.TravelID(uuid.NewString())
		},
	}
}

// SetNewTravelIDForTest overrides travel ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewTravelIDForTest(fn func() domain.TravelID) {
	if fn != nil {
		s.newTravelID = fn
	}
}

// ListTravels returns every record owned by caller. The result is never nil.
func (s *Service) ListTravels(ctx context.Context, caller domain.SubjectID) ([]domain.Travel, error) {
	ts, err := s.travels.ListByOwner(ctx, caller)
	if err != nil {
		return nil, storageError("list travels", err)
	}
	out := make([]domain.Travel, 0, len(ts))
	for _, t := range ts {
		out = append(out, toDomain(t))
	}
	return out, nil
}

func (s *Service) CreateTravel(ctx context.Context, caller domain.SubjectID, in TravelInput) (domain.Travel, error) {
	f, err := ValidateInput(in)
	if err != nil {
		return domain.Travel{}, err
	}

	t := domain.Travel{ID: s.newTravelID(), OwnerID: caller}.WithFields(f)
	if err := s.travels.Insert(ctx, toRepo(t)); err != nil {
		// ErrAlreadyExists means a generated id collided; it is still a backend fault from the caller's view.
		return domain.Travel{}, storageError("create travel", err)
	}
	return t, nil
}

func (s *Service) UpdateTravel(ctx context.Context, caller domain.SubjectID, id domain.TravelID, in TravelInput) (domain.Travel, error) {
	f, err := ValidateInput(in)
	if err != nil {
		return domain.Travel{}, err
	}

	updated, err := s.travels.FindAndUpdate(ctx, id, caller, toRepoFields(f))
	if err != nil {
		if errors.Is(err, travelrepo.ErrNotFound) {
			return domain.Travel{}, notFoundOrUnauthorized()
		}
		return domain.Travel{}, storageError("update travel", err)
	}
	return toDomain(updated), nil
}

func (s *Service) DeleteTravel(ctx context.Context, caller domain.SubjectID, id domain.TravelID) error {
	if _, err := s.travels.FindAndDelete(ctx, id, caller); err != nil {
		if errors.Is(err, travelrepo.ErrNotFound) {
			return notFoundOrUnauthorized()
		}
		return storageError("delete travel", err)
	}
	return nil
}

func toDomain(t travelrepo.Travel) domain.Travel {
	return domain.Travel{
		ID:            t.ID,
		OwnerID:       t.OwnerID,
		Destination:   t.Destination,
		Description:   t.Description,
		DepartureDate: domain.CalendarDate(t.DepartureDate),
		DurationDays:  t.DurationDays,
	}
}

func toRepo(t domain.Travel) travelrepo.Travel {
	return travelrepo.Travel{
		ID:            t.ID,
		OwnerID:       t.OwnerID,
		Destination:   t.Destination,
		Description:   t.Description,
		DepartureDate: t.DepartureDate,
		DurationDays:  t.DurationDays,
	}
}

func toRepoFields(f domain.TravelFields) travelrepo.Fields {
	return travelrepo.Fields{
		Destination:   f.Destination,
		Description:   f.Description,
		DepartureDate: domain.CalendarDate(f.DepartureDate),
		DurationDays:  f.DurationDays,
	}
}
