package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
	idempotencyport "github.com/Overland-East-Bay/travel-log-api/internal/ports/out/idempotency"
	travelrepoport "github.com/Overland-East-Bay/travel-log-api/internal/ports/out/travelrepo"
)

type CleanupFunc = func()

type TravelRepoFactory func(t *testing.T) (travelrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:     idempotencyport.Key("k-" + uuid.NewString()),
		Subject: domain.SubjectID("sub-1"),
		Route:   "POST /travels",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		BodyHash:    "hash-abc",
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"id":"x"}`),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if got.BodyHash != "hash-abc" || got.StatusCode != 201 || got.ContentType != "application/json" || string(got.Body) != `{"id":"x"}` {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Subject scoping.
	other := fp
	other.Subject = domain.SubjectID("sub-2")
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("record leaked across subjects: ok=%v err=%v", ok, err)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.BodyHash = "hash-def"
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || got.BodyHash != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v hash=%q", ok, err, got.BodyHash)
	}
}

func newTravel(owner domain.SubjectID, dest string) travelrepoport.Travel {
	return travelrepoport.Travel{
		ID:            domain.TravelID(uuid.NewString()),
		OwnerID:       owner,
		Destination:   dest,
		Description:   "trip",
		DepartureDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DurationDays:  5,
	}
}

// RunTravelRepo exercises the ownership-scoped primitives every backend must provide.
func RunTravelRepo(t *testing.T, newRepo TravelRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	// Subjects are unique per run so shared backends do not see earlier data.
	run := uuid.NewString()
	alice := domain.SubjectID("alice-" + run)
	bob := domain.SubjectID("bob-" + run)

	// Empty owner => empty, non-nil list.
	empty, err := repo.ListByOwner(ctx, alice)
	if err != nil {
		t.Fatalf("ListByOwner empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", empty)
	}

	a1 := newTravel(alice, "Paris")
	a2 := newTravel(alice, "Rome")
	b1 := newTravel(bob, "Oslo")
	for _, tr := range []travelrepoport.Travel{a1, a2, b1} {
		if err := repo.Insert(ctx, tr); err != nil {
			t.Fatalf("Insert %s: %v", tr.Destination, err)
		}
	}

	// Duplicate id.
	if err := repo.Insert(ctx, a1); !errors.Is(err, travelrepoport.ErrAlreadyExists) {
		t.Fatalf("duplicate Insert err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.ListByOwner(ctx, alice)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("alice len=%d, want 2: %#v", len(got), got)
	}
	seen := map[domain.TravelID]travelrepoport.Travel{}
	for _, tr := range got {
		if tr.OwnerID != alice {
			t.Fatalf("foreign record in alice's list: %#v", tr)
		}
		seen[tr.ID] = tr
	}
	if g, ok := seen[a1.ID]; !ok || !sameTravel(g, a1) {
		t.Fatalf("a1 round-trip mismatch: got %#v want %#v", g, a1)
	}
	if _, ok := seen[a2.ID]; !ok {
		t.Fatalf("a2 missing from list")
	}

	fields := travelrepoport.Fields{
		Destination:   "Lyon",
		Description:   "trip2",
		DepartureDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		DurationDays:  3,
	}

	// Fused update: foreign owner and unknown id are the same miss.
	if _, err := repo.FindAndUpdate(ctx, b1.ID, alice, fields); !errors.Is(err, travelrepoport.ErrNotFound) {
		t.Fatalf("foreign FindAndUpdate err=%v, want ErrNotFound", err)
	}
	if _, err := repo.FindAndUpdate(ctx, domain.TravelID(uuid.NewString()), alice, fields); !errors.Is(err, travelrepoport.ErrNotFound) {
		t.Fatalf("unknown FindAndUpdate err=%v, want ErrNotFound", err)
	}
	if _, err := repo.FindAndUpdate(ctx, "not-a-valid-id", alice, fields); !errors.Is(err, travelrepoport.ErrNotFound) {
		t.Fatalf("malformed id FindAndUpdate err=%v, want ErrNotFound", err)
	}

	updated, err := repo.FindAndUpdate(ctx, a1.ID, alice, fields)
	if err != nil {
		t.Fatalf("FindAndUpdate: %v", err)
	}
	want := a1
	want.Destination, want.Description, want.DepartureDate, want.DurationDays = fields.Destination, fields.Description, fields.DepartureDate, fields.DurationDays
	if !sameTravel(updated, want) {
		t.Fatalf("updated=%#v want %#v", updated, want)
	}

	// Bob's record is untouched by alice's attempt.
	bobs, err := repo.ListByOwner(ctx, bob)
	if err != nil {
		t.Fatalf("ListByOwner bob: %v", err)
	}
	if len(bobs) != 1 || !sameTravel(bobs[0], b1) {
		t.Fatalf("bob's records changed: %#v", bobs)
	}

	// Fused delete.
	if _, err := repo.FindAndDelete(ctx, b1.ID, alice); !errors.Is(err, travelrepoport.ErrNotFound) {
		t.Fatalf("foreign FindAndDelete err=%v, want ErrNotFound", err)
	}
	deleted, err := repo.FindAndDelete(ctx, a1.ID, alice)
	if err != nil {
		t.Fatalf("FindAndDelete: %v", err)
	}
	if deleted.ID != a1.ID {
		t.Fatalf("deleted id=%s want %s", deleted.ID, a1.ID)
	}
	if _, err := repo.FindAndDelete(ctx, a1.ID, alice); !errors.Is(err, travelrepoport.ErrNotFound) {
		t.Fatalf("second FindAndDelete err=%v, want ErrNotFound", err)
	}
	if _, err := repo.FindAndUpdate(ctx, a1.ID, alice, fields); !errors.Is(err, travelrepoport.ErrNotFound) {
		t.Fatalf("FindAndUpdate after delete err=%v, want ErrNotFound", err)
	}

	got, err = repo.ListByOwner(ctx, alice)
	if err != nil {
		t.Fatalf("ListByOwner after delete: %v", err)
	}
	if len(got) != 1 || got[0].ID != a2.ID {
		t.Fatalf("after delete got %#v, want only a2", got)
	}
}

func sameTravel(a, b travelrepoport.Travel) bool {
	return a.ID == b.ID &&
		a.OwnerID == b.OwnerID &&
		a.Destination == b.Destination &&
		a.Description == b.Description &&
		a.DepartureDate.Equal(b.DepartureDate) &&
		a.DurationDays == b.DurationDays
}
