package httpx

import (
	"context"
	"net/http"
	"strings"

	"bookshelf/internal/platform/crypto"
)

type identityHolderKey struct{}

// identityHolder lets outer middleware (access log, metrics) see who the
// auth gate resolved.
type identityHolder struct {
	userID string
}

func contextWithIdentityHolder(ctx context.Context, h *identityHolder) context.Context {
	return context.WithValue(ctx, identityHolderKey{}, h)
}

// AuthMiddleware is the gate in front of every protected route. It rejects
// requests without a valid "Authorization: Bearer <token>" header and
// attaches the token identity to the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				JSONError(w, http.StatusUnauthorized, CodeUnauthorized, "No token, authorization denied.", nil)
				return
			}

			claims, err := crypto.ParseToken(secret, token)
			if err != nil {
				JSONError(w, http.StatusUnauthorized, CodeUnauthorized, "Token is not valid.", nil)
				return
			}

			if h, ok := r.Context().Value(identityHolderKey{}).(*identityHolder); ok {
				h.userID = claims.ID
			}

			ctx := ContextWithUser(r.Context(), claims.ID, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
