package travelrepo

import (
	"context"
	"sync"

	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/travelrepo"
)

// Repo is an in-memory implementation of travelrepo.Repository.
// It is safe for concurrent use; each fused primitive runs under a single write lock.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.TravelID]travelrepo.Travel
	// used tracks every id ever inserted so deleted ids are never reused.
	used map[domain.TravelID]struct{}
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.TravelID]travelrepo.Travel),
		used: make(map[domain.TravelID]struct{}),
	}
}

func (r *Repo) ListByOwner(ctx context.Context, owner domain.SubjectID) ([]travelrepo.Travel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]travelrepo.Travel, 0)
	for _, t := range r.byID {
		if t.OwnerID == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *Repo) Insert(ctx context.Context, t travelrepo.Travel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.ID == "" {
		return travelrepo.ErrAlreadyExists // treat empty ID as invalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.used[t.ID]; ok {
		return travelrepo.ErrAlreadyExists
	}
	r.used[t.ID] = struct{}{}
	r.byID[t.ID] = t
	return nil
}

func (r *Repo) FindAndUpdate(ctx context.Context, id domain.TravelID, owner domain.SubjectID, f travelrepo.Fields) (travelrepo.Travel, error) {
	if err := ctx.Err(); err != nil {
		return travelrepo.Travel{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.OwnerID != owner {
		return travelrepo.Travel{}, travelrepo.ErrNotFound
	}
	t.Destination = f.Destination
	t.Description = f.Description
	t.DepartureDate = f.DepartureDate
	t.DurationDays = f.DurationDays
	r.byID[id] = t
	return t, nil
}

func (r *Repo) FindAndDelete(ctx context.Context, id domain.TravelID, owner domain.SubjectID) (travelrepo.Travel, error) {
	if err := ctx.Err(); err != nil {
		return travelrepo.Travel{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.OwnerID != owner {
		return travelrepo.Travel{}, travelrepo.ErrNotFound
	}
	delete(r.byID, id)
	return t, nil
}
