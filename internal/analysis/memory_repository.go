package analysis

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and for deployments without a database.
type InMemoryRepository struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewInMemoryRepository creates a new in-memory analysis run repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		runs: make(map[string]*Run),
	}
}

// Create stores a completed run.
func (r *InMemoryRepository) Create(_ context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *run
	r.runs[run.ID] = &cpy
	return nil
}

// Get retrieves a run by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}

	// Return a copy
	cpy := *run
	return &cpy, nil
}

// List retrieves runs for a user with pagination, newest first.
func (r *InMemoryRepository) List(_ context.Context, userID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var runs []*Run
	for _, run := range r.runs {
		if run.UserID == userID {
			cpy := *run
			runs = append(runs, &cpy)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	// Resume strictly after the cursor run. An unknown cursor matches
	// nothing and yields an empty page, same as the keyset query.
	if opts.Cursor != "" {
		after := -1
		for i, run := range runs {
			if run.ID == opts.Cursor {
				after = i + 1
				break
			}
		}
		if after < 0 {
			runs = nil
		} else {
			runs = runs[after:]
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
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
func (r *InMemoryRepository) RecentLocations(_ context.Context, limit int) ([]Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	runs := make([]*Run, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	seen := make(map[string]bool)
	var locations []Location
	for _, run := range runs {
		key := run.Location.DisplayName
		if seen[key] {
			continue
		}
		seen[key] = true
		locations = append(locations, run.Location)
		if len(locations) >= limit {
			break
		}
	}

	return locations, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
