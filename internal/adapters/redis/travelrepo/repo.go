package travelrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/Overland-East-Bay/travel-log-api/internal/adapters/redis"
	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/travelrepo"
)

// Repo is a Redis implementation of travelrepo.Repository.
//
// Layout:
//   - {prefix}travel:{id}   hash of record fields
//   - {prefix}owner:{sub}   set of ids owned by sub
//   - {prefix}travel-ids    set of every id ever issued
type Repo struct {
	client goredis.UniversalClient
	keys   redisadapter.Keyspace
}

func NewRepo(client goredis.UniversalClient, keyPrefix string) *Repo {
	return &Repo{client: client, keys: redisadapter.NewKeyspace(keyPrefix)}
}

func (r *Repo) travelKey(id domain.TravelID) string { return r.keys.Key("travel", string(id)) }
func (r *Repo) ownerKey(owner domain.SubjectID) string {
	return r.keys.Key("owner", string(owner))
}
func (r *Repo) issuedKey() string { return r.keys.Key("travel-ids") }

func (r *Repo) ListByOwner(ctx context.Context, owner domain.SubjectID) ([]travelrepo.Travel, error) {
	ids, err := r.client.SMembers(ctx, r.ownerKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("list owner ids: %w", err)
	}
	out := make([]travelrepo.Travel, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*goredis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, r.travelKey(domain.TravelID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("load travels: %w", err)
	}
	for i, cmd := range cmds {
		m := cmd.Val()
		// Deleted between SMEMBERS and HGETALL.
		if len(m) == 0 {
			continue
		}
		t, err := fromHash(domain.TravelID(ids[i]), m)
		if err != nil {
			return nil, err
		}
		if t.OwnerID != owner {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *Repo) Insert(ctx context.Context, t travelrepo.Travel) error {
	if t.ID == "" {
		return travelrepo.ErrAlreadyExists
	}
	n, err := insertScript.Run(ctx, r.client,
		[]string{r.travelKey(t.ID), r.ownerKey(t.OwnerID), r.issuedKey()},
		string(t.ID),
		string(t.OwnerID),
		t.Destination,
		t.Description,
		domain.FormatCalendarDate(t.DepartureDate),
		t.DurationDays,
	).Int()
	if err != nil {
		return fmt.Errorf("insert travel: %w", err)
	}
	if n == 0 {
		return travelrepo.ErrAlreadyExists
	}
	return nil
}

func (r *Repo) FindAndUpdate(ctx context.Context, id domain.TravelID, owner domain.SubjectID, f travelrepo.Fields) (travelrepo.Travel, error) {
	res, err := updateScript.Run(ctx, r.client,
		[]string{r.travelKey(id)},
		string(owner),
		f.Destination,
		f.Description,
		domain.FormatCalendarDate(f.DepartureDate),
		f.DurationDays,
	).StringSlice()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return travelrepo.Travel{}, travelrepo.ErrNotFound
		}
		return travelrepo.Travel{}, fmt.Errorf("update travel: %w", err)
	}
	return fromPairs(id, res)
}

func (r *Repo) FindAndDelete(ctx context.Context, id domain.TravelID, owner domain.SubjectID) (travelrepo.Travel, error) {
	res, err := deleteScript.Run(ctx, r.client,
		[]string{r.travelKey(id), r.ownerKey(owner)},
		string(owner),
		string(id),
	).StringSlice()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return travelrepo.Travel{}, travelrepo.ErrNotFound
		}
		return travelrepo.Travel{}, fmt.Errorf("delete travel: %w", err)
	}
	return fromPairs(id, res)
}

func fromPairs(id domain.TravelID, kv []string) (travelrepo.Travel, error) {
	if len(kv)%2 != 0 {
		return travelrepo.Travel{}, fmt.Errorf("travel %s: odd hash reply", id)
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return fromHash(id, m)
}

func fromHash(id domain.TravelID, m map[string]string) (travelrepo.Travel, error) {
	depart, err := time.Parse("2006-01-02", m["departure_date"])
	if err != nil {
		return travelrepo.Travel{}, fmt.Errorf("travel %s: bad departure_date: %w", id, err)
	}
	duration, err := strconv.Atoi(m["duration_days"])
	if err != nil {
		return travelrepo.Travel{}, fmt.Errorf("travel %s: bad duration_days: %w", id, err)
	}
	return travelrepo.Travel{
		ID:            id,
		OwnerID:       domain.SubjectID(m["owner_id"]),
		Destination:   m["destination"],
		Description:   m["description"],
		DepartureDate: depart,
		DurationDays:  duration,
	}, nil
}
