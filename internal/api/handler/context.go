package handler

import (
	"context"

	"github.com/climacast/climacast/internal/api/middleware"
)

// GetUserID retrieves the caller identity from the context.
// This is a convenience wrapper around middleware.GetUserID.
func GetUserID(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}
