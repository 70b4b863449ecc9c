package travelrepo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/travelrepo"
)

func TestRepo_Insert_DeletedIDIsNotReused(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	ctx := context.Background()
	tr := travelrepo.Travel{
		ID:            "t1",
		OwnerID:       "u1",
		Destination:   "Paris",
		Description:   "trip",
		DepartureDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DurationDays:  5,
	}
	if err := r.Insert(ctx, tr); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := r.FindAndDelete(ctx, "t1", "u1"); err != nil {
		t.Fatalf("FindAndDelete: %v", err)
	}
	if err := r.Insert(ctx, tr); !errors.Is(err, travelrepo.ErrAlreadyExists) {
		t.Fatalf("re-Insert err=%v, want ErrAlreadyExists", err)
	}
}

func TestRepo_ConcurrentDelete_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	ctx := context.Background()
	if err := r.Insert(ctx, travelrepo.Travel{ID: "t1", OwnerID: "u1", Destination: "d", Description: "d", DurationDays: 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.FindAndDelete(ctx, "t1", "u1"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("wins=%d, want 1", wins)
	}
}

func TestRepo_ConcurrentUpdateAndDelete_NoResurrection(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	ctx := context.Background()
	owner := domain.SubjectID("u1")
	for i := 0; i < 50; i++ {
		id := domain.TravelID(fmt.Sprintf("t%d", i))
		if err := r.Insert(ctx, travelrepo.Travel{ID: id, OwnerID: owner, Destination: "d", Description: "d", DurationDays: 1}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = r.FindAndUpdate(ctx, id, owner, travelrepo.Fields{Destination: "x", Description: "y", DurationDays: 2})
		}()
		go func() {
			defer wg.Done()
			_, _ = r.FindAndDelete(ctx, id, owner)
		}()
		wg.Wait()
		if _, err := r.FindAndUpdate(ctx, id, owner, travelrepo.Fields{Destination: "z", Description: "z", DurationDays: 3}); !errors.Is(err, travelrepo.ErrNotFound) {
			t.Fatalf("record %s survived delete: err=%v", id, err)
		}
	}
	got, err := r.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len=%d, want 0", len(got))
	}
}

func TestRepo_CanceledContext(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.ListByOwner(ctx, "u1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("ListByOwner err=%v, want context.Canceled", err)
	}
}
