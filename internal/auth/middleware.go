package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stockroom/stockroom/internal/platform/httpx"
	"github.com/stockroom/stockroom/internal/shared"
)

// Middleware rejects requests without a valid bearer token and attaches the
// resolved user to the request context.
func Middleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.Fail(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}
			user, err := service.Authenticate(r.Context(), token)
			if err != nil {
				if !errors.Is(err, shared.ErrUnauthenticated) {
					logger.Error("resolve bearer token", slog.Any("error", err))
				}
				httpx.Fail(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
