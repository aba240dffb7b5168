package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/futig/docgen-gateway/internal/pkg/logger"
	"github.com/futig/docgen-gateway/internal/pkg/response"
)

// UserIDHeader carries the id of the authenticated user, set by the auth proxy in front of the gateway
const UserIDHeader = "X-User-ID"

type userIDKey struct{}

// RequireUser rejects requests without a user id and stores it in the request context
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			response.Error(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), "missing "+UserIDHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		ctx = logger.WithUser(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the user id stored by RequireUser
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey{}).(string)
	return userID
}
