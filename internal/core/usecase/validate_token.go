package usecase

import (
	"context"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

// ValidateTokenUseCase проверяет токен доступа для middleware.
type ValidateTokenUseCase struct {
	tokens port.TokenServicePort
}

// NewValidateTokenUseCase - конструктор
func NewValidateTokenUseCase(tokens port.TokenServicePort) *ValidateTokenUseCase {
	return &ValidateTokenUseCase{tokens: tokens}
}

func (uc *ValidateTokenUseCase) Validate(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := uc.tokens.ValidateToken(ctx, token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
