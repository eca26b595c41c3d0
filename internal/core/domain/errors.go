package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSite — идентификатор сайта не зарегистрирован в фабрике.
	ErrUnknownSite = errors.New("unknown site identifier")

	// ErrBrandCatalogUnavailable — каталог марок сайта не удалось получить.
	ErrBrandCatalogUnavailable = errors.New("brand catalog unavailable")

	ErrCarNotFound        = errors.New("car not found")
	ErrInvalidCarID       = errors.New("invalid car id")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError — нормализация не смогла привести поле к каноническому виду.
// Такой элемент пропускается и учитывается как ошибка, но не прерывает запуск.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %q (value %v): %s", e.Field, e.Value, e.Reason)
}
