package usecases_port

import (
	"context"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

// LoginUserPort проверяет учетные данные и выдает токен доступа.
type LoginUserPort interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// ValidateTokenPort проверяет токен и возвращает его claims.
type ValidateTokenPort interface {
	Validate(ctx context.Context, token string) (*domain.Claims, error)
}
