package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/auth"
	"github.com/RubachokBoss/quizspark/internal/models"
)

type TokenAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (*auth.Principal, error)
}

// Authenticate проверяет Bearer-токен и кладет Principal в контекст запроса.
func Authenticate(authn TokenAuthenticator, log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			principal, err := authn.Authenticate(r.Context(), raw)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) {
					log.Error().Err(err).Msg("Failed to authenticate request")
				}
				writeError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireKind пропускает только аккаунты указанного типа.
func RequireKind(kind models.AccountKind) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := auth.PrincipalFrom(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if principal.Kind != kind {
				writeError(w, http.StatusForbidden, "Only "+string(kind)+" accounts can do this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}
