package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/heartmarshall/civic-client/internal/domain"
	"github.com/heartmarshall/civic-client/pkg/ctxutil"
)

// authenticator resolves a bearer token to the account it was issued for.
type authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

// userInfo lets Logger, which wraps the router, see the user resolved by
// RequireAuth on an inner subrouter.
type userInfo struct {
	user domain.User
	set  bool
}

type userInfoKey struct{}

func withUserInfo(ctx context.Context, ui *userInfo) context.Context {
	return context.WithValue(ctx, userInfoKey{}, ui)
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the user ID of valid ones in the context.
func RequireAuth(auth authenticator, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				unauthorized(w, "Not authenticated")
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", slog.String("error", err.Error()))
				unauthorized(w, "Invalid authentication credentials")
				return
			}

			if ui, ok := r.Context().Value(userInfoKey{}).(*userInfo); ok {
				ui.user, ui.set = user, true
			}
			ctx := ctxutil.WithUserID(r.Context(), user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteDetail(w, http.StatusUnauthorized, detail)
}

func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
