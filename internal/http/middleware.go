package http

import (
	"context"
	"net/http"
	"strings"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

type contextKey string

const claimsKey contextKey = "claims"

// authenticate attaches the claims of a valid bearer token to the request.
// Requests with a missing or invalid token continue anonymously.
func authenticate(tokens *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Verify(strings.TrimSpace(token))
			if err != nil {
				applog.FromContext(r.Context()).DebugContext(r.Context(), "Ignoring invalid token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			logger := applog.FromContext(r.Context()).With(applog.FieldUserID, claims.ID)
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = applog.NewContext(ctx, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// ensureLoggedIn answers 401 for anonymous requests.
func ensureLoggedIn(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := claimsFrom(r.Context()); !ok {
			UnauthorizedError().Write(w)
			return
		}
		next(w, r)
	}
}

// ensureCorrectUser fails unless the request is authenticated as userID.
func ensureCorrectUser(r *http.Request, userID int64) error {
	claims, ok := claimsFrom(r.Context())
	if !ok || claims.ID != userID {
		return core.UnauthorizedError("Unauthorized")
	}
	return nil
}
