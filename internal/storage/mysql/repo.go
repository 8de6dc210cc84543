package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"homefinder/internal/domain"
)

func valInt64(v int64) any {
	if v <= 0 {
		return nil
	}
	return v
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertProperty inserts or updates a listing and returns its id.
// A zero ID lets MySQL assign one.
func (r *Repo) UpsertProperty(ctx context.Context, p domain.Property) (int64, error) {
	res, err := r.db.ExecContext(ctx, upsertPropertySQL,
		valInt64(p.ID),
		p.HouseName,
		p.Address,
		p.Price,
		p.Rooms,
		p.Washrooms,
		p.SquareFeet,
		valF64(p.Lat),
		valF64(p.Lon),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert property %q: %w", p.HouseName, err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return p.ID, err
	}
	return id, nil
}

func (r *Repo) GetProperty(ctx context.Context, id int64) (domain.Property, error) {
	row := r.db.QueryRowContext(ctx, getPropertySQL, id)

	var p domain.Property
	var lat, lon sql.NullFloat64
	var created sql.NullTime
	if err := row.Scan(
		&p.ID,
		&p.HouseName,
		&p.Address,
		&p.Price,
		&p.Rooms,
		&p.Washrooms,
		&p.SquareFeet,
		&lat, &lon,
		&created,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Property{}, domain.ErrNotFound
		}
		return domain.Property{}, err
	}
	if lat.Valid && lon.Valid {
		la, lo := lat.Float64, lon.Float64
		p.Lat, p.Lon = &la, &lo
	}
	if created.Valid {
		p.CreatedAt = created.Time
	}
	return p, nil
}

// FindCandidates returns listings with coordinates matching f, in id order, at most f.Limit rows.
func (r *Repo) FindCandidates(ctx context.Context, f domain.CandidateFilter) ([]domain.PropertyCandidate, error) {
	q, args := buildCandidatesQuery(f)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.PropertyCandidate, 0, f.Limit)
	for rows.Next() {
		var c domain.PropertyCandidate
		if err := rows.Scan(&c.ID, &c.HouseName, &c.Address, &c.Price, &c.Rooms, &c.Latitude, &c.Longitude); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func buildCandidatesQuery(f domain.CandidateFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(selectCandidatesPrefix)
	args := make([]any, 0, 4)
	if f.MinPrice != nil {
		sb.WriteString("\n  AND price >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		sb.WriteString("\n  AND price <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.Rooms != nil {
		sb.WriteString("\n  AND rooms >= ?")
		args = append(args, *f.Rooms)
	}
	sb.WriteString(selectCandidatesSuffix)
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	return sb.String(), args
}
