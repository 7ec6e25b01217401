// README: Run store backed by PostgreSQL (minimal methods for MVP).
package runs

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("run not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the runs table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			created_at      TIMESTAMPTZ NOT NULL,
			preset          TEXT NOT NULL,
			seed            BIGINT NOT NULL,
			orders          INT NOT NULL,
			drivers         INT NOT NULL,
			delivered       INT NOT NULL,
			expired         INT NOT NULL,
			cancelled       INT NOT NULL,
			match_rate      DOUBLE PRECISION NOT NULL,
			on_time_rate    DOUBLE PRECISION NOT NULL,
			revenue         DOUBLE PRECISION NOT NULL,
			profit          DOUBLE PRECISION NOT NULL,
			driver_earnings DOUBLE PRECISION NOT NULL,
			fleet_cost      DOUBLE PRECISION NOT NULL,
			emissions_kg    DOUBLE PRECISION NOT NULL,
			avg_detour_km   DOUBLE PRECISION NOT NULL
		)`)
	return err
}

func (s *Store) Create(ctx context.Context, r *Run) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO runs (
			id, created_at, preset, seed, orders, drivers,
			delivered, expired, cancelled,
			match_rate, on_time_rate,
			revenue, profit, driver_earnings, fleet_cost,
			emissions_kg, avg_detour_km
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11,
			$12, $13, $14, $15,
			$16, $17
		)`,
		r.ID,
		r.CreatedAt,
		r.Preset,
		r.Seed,
		r.Orders,
		r.Drivers,
		r.Summary.Delivered,
		r.Summary.Expired,
		r.Summary.Cancelled,
		r.Summary.MatchRate,
		r.Summary.OnTimeRate,
		r.Summary.Revenue,
		r.Summary.Profit,
		r.Summary.DriverEarnings,
		r.Summary.FleetCost,
		r.Summary.EmissionsKg,
		r.Summary.AvgDetourKm,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, created_at, preset, seed, orders, drivers,
		       delivered, expired, cancelled,
		       match_rate, on_time_rate,
		       revenue, profit, driver_earnings, fleet_cost,
		       emissions_kg, avg_detour_km
		FROM runs
		WHERE id = $1`, id,
	)

	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, created_at, preset, seed, orders, drivers,
		       delivered, expired, cancelled,
		       match_rate, on_time_rate,
		       revenue, profit, driver_earnings, fleet_cost,
		       emissions_kg, avg_detour_km
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRun(row pgx.Row) (*Run, error) {
	var r Run
	err := row.Scan(
		&r.ID, &r.CreatedAt, &r.Preset, &r.Seed, &r.Orders, &r.Drivers,
		&r.Summary.Delivered, &r.Summary.Expired, &r.Summary.Cancelled,
		&r.Summary.MatchRate, &r.Summary.OnTimeRate,
		&r.Summary.Revenue, &r.Summary.Profit, &r.Summary.DriverEarnings, &r.Summary.FleetCost,
		&r.Summary.EmissionsKg, &r.Summary.AvgDetourKm,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
