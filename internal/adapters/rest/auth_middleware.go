package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	usecases_port "github.com/Thebloodraccoon/car-parser/internal/core/port/usecases"
)

// Кастомный тип для ключа контекста
type contextKey string

const claimsKey = contextKey("claims")

// NewAuthMiddleware проверяет Bearer-токен и кладет claims в контекст.
// Сервис работает без API Gateway, поэтому валидация JWT происходит здесь.
func NewAuthMiddleware(validateUC usecases_port.ValidateTokenPort) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteJSONError(w, http.StatusUnauthorized, "Authorization header is missing")
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				WriteJSONError(w, http.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
				return
			}

			claims, err := validateUC.Validate(r.Context(), token)
			if err != nil {
				WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext достает claims, положенные auth middleware.
func ClaimsFromContext(ctx context.Context) (*domain.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*domain.Claims)
	return claims, ok
}
