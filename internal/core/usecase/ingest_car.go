package usecase

import (
	"context"
	"fmt"

	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

// Обязательные поля дешевой проверки перед дедупликацией.
var requiredRawFields = []string{"make", "model", "year"}

// IngestCarUseCase проводит одно сырое объявление через воронку:
// проверка обязательных полей, дедупликация по натуральному ключу,
// нормализация и сохранение.
type IngestCarUseCase struct {
	storage port.CarStoragePort
}

// NewIngestCarUseCase - конструктор
func NewIngestCarUseCase(storage port.CarStoragePort) *IngestCarUseCase {
	return &IngestCarUseCase{storage: storage}
}

// Ingest возвращает true, если запись сохранена. Отсев на проверке полей
// и дубликаты дают (false, nil); ошибка валидации или хранилища - (false, err).
func (uc *IngestCarUseCase) Ingest(ctx context.Context, raw domain.RawCarData, baseURL, siteName string) (bool, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "IngestCarUseCase",
		"site":      siteName,
	})

	// Дешевая проверка до похода в БД: без марки, модели и года запись
	// бесполезна и дедупликации не подлежит
	for _, field := range requiredRawFields {
		if isAbsent(raw[field]) {
			logger.Debug("Dropping item without required field", port.Fields{"field": field})
			return false, nil
		}
	}

	key := domain.NaturalKeyFromRaw(raw, siteName)

	exists, err := uc.storage.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to check car existence: %w", err)
	}
	if exists {
		logger.Debug("Dropping duplicate item", port.Fields{"make": raw["make"], "model": raw["model"]})
		return false, nil
	}

	car, err := domain.Normalize(raw, baseURL, siteName)
	if err != nil {
		return false, fmt.Errorf("failed to normalize car: %w", err)
	}

	if _, err := uc.storage.Insert(ctx, car); err != nil {
		return false, fmt.Errorf("failed to insert car: %w", err)
	}

	return true, nil
}

// isAbsent: nil, отсутствующий ключ и пустая строка считаются отсутствием.
func isAbsent(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok && s == "" {
		return true
	}
	return false
}
