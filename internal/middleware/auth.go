package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/vidhive/backend/internal/auth"
	"github.com/vidhive/backend/internal/logging"
	"github.com/vidhive/backend/internal/respond"
)

// AccessTokenCookie is the cookie consulted when no bearer header is sent.
const AccessTokenCookie = "accessToken"

// TokenVerifier resolves an access token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate resolves the caller from a bearer token or the access token
// cookie. Requests without a valid token continue anonymously; RequireActor
// decides whether that is acceptable.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			userID, err := verifier.Verify(token)
			if err != nil {
				logging.FromContext(ctx).Debug("access token rejected", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			ctx = auth.WithActorID(ctx, userID)
			ctx = logging.With(ctx, slog.String("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor answers 401 unless Authenticate resolved a caller.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.ActorIDFromContext(r.Context()); !ok {
			respond.Fail(r.Context(), w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
