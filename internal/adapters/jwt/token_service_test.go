package token_adapter

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:    uuid.New(),
		Email: "admin@example.com",
		Role:  "admin",
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	service, err := NewTokenService("test-signing-key")
	require.NoError(t, err)

	user := testUser()
	ctx := context.Background()

	token, err := service.GenerateToken(ctx, user, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
}

func TestValidateExpiredToken(t *testing.T) {
	service, err := NewTokenService("test-signing-key")
	require.NoError(t, err)

	ctx := context.Background()
	token, err := service.GenerateToken(ctx, testUser(), -time.Minute)
	require.NoError(t, err)

	claims, err := service.ValidateToken(ctx, token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestValidateTokenSignedWithDifferentKey(t *testing.T) {
	issuer, err := NewTokenService("key-one")
	require.NoError(t, err)
	verifier, err := NewTokenService("key-two")
	require.NoError(t, err)

	ctx := context.Background()
	token, err := issuer.GenerateToken(ctx, testUser(), time.Hour)
	require.NoError(t, err)

	claims, err := verifier.ValidateToken(ctx, token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestValidateGarbageToken(t *testing.T) {
	service, err := NewTokenService("test-signing-key")
	require.NoError(t, err)

	claims, err := service.ValidateToken(context.Background(), "not.a.token")
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestNewTokenServiceRejectsEmptyKey(t *testing.T) {
	_, err := NewTokenService("")
	assert.Error(t, err)
}
