package travelrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/Overland-East-Bay/travel-log-api/internal/adapters/postgres"
	"github.com/Overland-East-Bay/travel-log-api/internal/domain"
	"github.com/Overland-East-Bay/travel-log-api/internal/ports/out/travelrepo"
)

// Repo is a Postgres implementation of travelrepo.Repository.
//
// FindAndUpdate and FindAndDelete are single statements whose WHERE clause
// matches both id and owner_id, so the match and the mutation are one atomic step.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const travelColumns = `id, owner_id, destination, description, departure_date, duration_days`

func (r *Repo) ListByOwner(ctx context.Context, owner domain.SubjectID) ([]travelrepo.Travel, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+travelColumns+`
		FROM travels
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`, string(owner))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]travelrepo.Travel, 0)
	for rows.Next() {
		t, err := scanTravel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Insert(ctx context.Context, t travelrepo.Travel) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	travelUUID, err := uuid.Parse(string(t.ID))
	if err != nil {
		return fmt.Errorf("invalid travel id: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO travel_ids_issued (id) VALUES ($1)`, travelUUID); err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return travelrepo.ErrAlreadyExists
			}
			return err
		}
		now := time.Now().UTC()
		_, err := tx.Exec(ctx, `
			INSERT INTO travels (
				id,
				owner_id,
				destination,
				description,
				departure_date,
				duration_days,
				created_at,
				updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			travelUUID,
			string(t.OwnerID),
			t.Destination,
			t.Description,
			toDate(t.DepartureDate),
			t.DurationDays,
			now,
			now,
		)
		if err != nil {
			if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
				return travelrepo.ErrAlreadyExists
			}
			return err
		}
		return nil
	})
}

func (r *Repo) FindAndUpdate(ctx context.Context, id domain.TravelID, owner domain.SubjectID, f travelrepo.Fields) (travelrepo.Travel, error) {
	if r.pool == nil {
		return travelrepo.Travel{}, errors.New("nil postgres pool")
	}
	travelUUID, err := uuid.Parse(string(id))
	if err != nil {
		return travelrepo.Travel{}, travelrepo.ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE travels
		SET destination = $3,
		    description = $4,
		    departure_date = $5,
		    duration_days = $6,
		    updated_at = $7
		WHERE id = $1 AND owner_id = $2
		RETURNING `+travelColumns,
		travelUUID,
		string(owner),
		f.Destination,
		f.Description,
		toDate(f.DepartureDate),
		f.DurationDays,
		time.Now().UTC(),
	)
	t, err := scanTravel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return travelrepo.Travel{}, travelrepo.ErrNotFound
		}
		return travelrepo.Travel{}, err
	}
	return t, nil
}

func (r *Repo) FindAndDelete(ctx context.Context, id domain.TravelID, owner domain.SubjectID) (travelrepo.Travel, error) {
	if r.pool == nil {
		return travelrepo.Travel{}, errors.New("nil postgres pool")
	}
	travelUUID, err := uuid.Parse(string(id))
	if err != nil {
		return travelrepo.Travel{}, travelrepo.ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `
		DELETE FROM travels
		WHERE id = $1 AND owner_id = $2
		RETURNING `+travelColumns,
		travelUUID,
		string(owner),
	)
	t, err := scanTravel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return travelrepo.Travel{}, travelrepo.ErrNotFound
		}
		return travelrepo.Travel{}, err
	}
	return t, nil
}

func scanTravel(row pgx.Row) (travelrepo.Travel, error) {
	var (
		id       uuid.UUID
		owner    string
		dest     string
		desc     string
		depart   pgtype.Date
		duration int
	)
	if err := row.Scan(&id, &owner, &dest, &desc, &depart, &duration); err != nil {
		return travelrepo.Travel{}, err
	}
	return travelrepo.Travel{
		ID:            domain.TravelID(id.String()),
		OwnerID:       domain.SubjectID(owner),
		Destination:   dest,
		Description:   desc,
		DepartureDate: fromDate(depart),
		DurationDays:  duration,
	}, nil
}

func toDate(t time.Time) pgtype.Date {
	tt := t.UTC()
	return pgtype.Date{
		Time:  time.Date(tt.Year(), tt.Month(), tt.Day(), 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
}

func fromDate(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}
