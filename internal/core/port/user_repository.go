package port

import (
	"context"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

// UserRepositoryPort — контракт хранилища пользователей.
type UserRepositoryPort interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}
