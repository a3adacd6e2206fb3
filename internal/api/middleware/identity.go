package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// userIDKey is the context key for the caller identity.
type userIDKey struct{}

// AnonymousIDHeader carries a client-chosen stable identity. Clients that
// want their run history to survive restarts send the same value on every
// request.
const AnonymousIDHeader = "X-Anonymous-Id"

// Identity resolves the caller identity for the request. The API has no
// accounts; callers are identified by the X-Anonymous-Id header, with a
// throwaway UUID generated for requests that omit it. The resolved ID is
// echoed back so clients can adopt it.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(AnonymousIDHeader)
		if userID == "" {
			userID = uuid.New().String()
		}

		w.Header().Set(AnonymousIDHeader, userID)

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID retrieves the caller identity from the context.
// Returns an empty string if the identity middleware did not run.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}
