package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const practitionerIDKey contextKey = "practitioner_id"

// Middleware rejects requests without a valid Bearer token and stores the
// practitioner ID in the request context.
func Middleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || raw == "" {
				unauthorized(w)
				return
			}

			userID, err := issuer.Verify(raw)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), practitionerIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PractitionerID returns the authenticated practitioner from the context.
func PractitionerID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(practitionerIDKey).(int64)
	return id, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
