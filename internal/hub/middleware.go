package hub

import (
	"context"
	"net/http"
	"strings"

	"weddinghub/internal/common"
)

type contextKey string

const identityKey contextKey = "identity"

// authMiddleware enforces Bearer auth on every route and injects the resolved
// identity into the request context.
func authMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, "authorization required")
				return
			}

			// header = Bearer <token>
			parts := strings.Fields(header)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "invalid auth header")
				return
			}

			claims, err := common.ParseToken(secret, parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			role := common.Role(claims.Role)
			if !role.Valid() {
				writeError(w, http.StatusUnauthorized, "unknown role")
				return
			}

			id := common.Identity{UserID: claims.UserID, Role: role}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFromContext(ctx context.Context) (common.Identity, bool) {
	id, ok := ctx.Value(identityKey).(common.Identity)
	return id, ok
}
