package analysis

import "context"

// ListOptions contains options for listing analysis runs.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains the results of listing analysis runs.
type ListResult struct {
	Items      []*Run
	NextCursor string
}

// Repository defines the interface for analysis run persistence.
type Repository interface {
	// Create stores a completed run.
	Create(ctx context.Context, run *Run) error

	// Get retrieves a run by ID.
	// Returns ErrRunNotFound if the run doesn't exist.
	Get(ctx context.Context, id string) (*Run, error)

	// List retrieves runs for a user with pagination, newest first.
	List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error)

	// RecentLocations returns distinct locations from the most recent runs,
	// newest first. Used by the cache-warming worker.
	RecentLocations(ctx context.Context, limit int) ([]Location, error)
}
