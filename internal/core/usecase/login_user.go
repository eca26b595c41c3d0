package usecase

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

// LoginUserUseCase проверяет учетные данные и выдает JWT.
type LoginUserUseCase struct {
	users    port.UserRepositoryPort
	tokens   port.TokenServicePort
	tokenTTL time.Duration
}

// NewLoginUserUseCase - конструктор
func NewLoginUserUseCase(users port.UserRepositoryPort, tokens port.TokenServicePort, tokenTTL time.Duration) *LoginUserUseCase {
	return &LoginUserUseCase{
		users:    users,
		tokens:   tokens,
		tokenTTL: tokenTTL,
	}
}

// Login возвращает токен доступа. Несуществующий пользователь и неверный
// пароль неразличимы снаружи: в обоих случаях ErrInvalidCredentials.
func (uc *LoginUserUseCase) Login(ctx context.Context, email, password string) (string, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "LoginUserUseCase",
	})

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Warn("Failed login attempt", port.Fields{"email": email})
		return "", domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.GenerateToken(ctx, user, uc.tokenTTL)
	if err != nil {
		return "", err
	}

	return token, nil
}
