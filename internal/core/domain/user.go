package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Claims — полезная нагрузка валидного токена доступа.
type Claims struct {
	UserID uuid.UUID
	Email  string
	Role   string
}
