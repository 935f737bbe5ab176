package middleware

import (
	"net/http"
	"slices"

	"dms-be/internal/auth"
	"dms-be/internal/logger"
	"dms-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthMiddleware attaches the caller identity when a token is present.
// Requests without a token pass through anonymously; a bad token is rejected.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(tokenStr, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("rejecting token", zap.Error(err))
				utils.WriteJSONError(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			// ParseToken already validated the subject.
			userID := uuid.MustParse(claims.UserID)
			ctx := utils.SetUserContext(r.Context(), userID, claims.Email, claims.Role)
			ctx = logger.WithActor(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects anonymous callers with 401 and callers outside roles with 403.
// An empty role list only requires authentication.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
				utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
				return
			}
			if role := utils.GetUserRoleFromContext(r.Context()); len(roles) > 0 && !slices.Contains(roles, role) {
				logger.FromCtx(r.Context()).Warn("role not permitted",
					zap.String("role", role),
					zap.String("email", utils.GetUserEmailFromContext(r.Context())),
					zap.String("path", r.URL.Path),
				)
				utils.WriteJSONError(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
