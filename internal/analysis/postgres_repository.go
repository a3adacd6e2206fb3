package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository. Scalar
// query columns are stored alongside the full run document as JSONB.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL analysis run repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create stores a completed run.
func (r *PostgresRepository) Create(ctx context.Context, run *Run) error {
	query := `
		INSERT INTO analysis_runs (
			id, user_id, display_name, lat, lon, target_date, document, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	document, err := json.Marshal(run)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		run.ID,
		run.UserID,
		run.Location.DisplayName,
		run.Location.Latitude,
		run.Location.Longitude,
		run.TargetDate,
		document,
		run.CreatedAt,
	)
	return err
}

// Get retrieves a run by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Run, error) {
	query := `SELECT document FROM analysis_runs WHERE id = $1`

	var document []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	var run Run
	if err := json.Unmarshal(document, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// List retrieves runs for a user with pagination, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `
		SELECT document
		FROM analysis_runs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	args := []any{userID, fetchLimit}

	// Keyset pagination: resume strictly after the cursor run. An unknown
	// cursor matches nothing and yields an empty page.
	if opts.Cursor != "" {
		query = `
			SELECT document
			FROM analysis_runs
			WHERE user_id = $1
			  AND (created_at, id) < (
				SELECT created_at, id FROM analysis_runs WHERE id = $2
			  )
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`
		args = []any{userID, opts.Cursor, fetchLimit}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, err
		}

		var run Run
		if err := json.Unmarshal(document, &run); err != nil {
			return nil, err
		}
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{
		Items: runs,
	}

	if len(runs) > limit {
		result.Items = runs[:limit]
		result.NextCursor = runs[limit-1].ID
	}

	return result, nil
}

// RecentLocations returns distinct locations from the most recent runs.
func (r *PostgresRepository) RecentLocations(ctx context.Context, limit int) ([]Location, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT DISTINCT ON (display_name) display_name, lat, lon, created_at
		FROM analysis_runs
		ORDER BY display_name, created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var (
			loc       Location
			createdAt time.Time
		)
		if err := rows.Scan(&loc.DisplayName, &loc.Latitude, &loc.Longitude, &createdAt); err != nil {
			return nil, err
		}
		_ = createdAt
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return locations, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
