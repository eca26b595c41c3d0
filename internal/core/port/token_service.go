package port

import (
	"context"
	"time"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

// TokenServicePort — контракт выдачи и проверки токенов доступа.
type TokenServicePort interface {
	GenerateToken(ctx context.Context, user *domain.User, ttl time.Duration) (string, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
}
