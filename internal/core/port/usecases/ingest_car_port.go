package usecases_port

import (
	"context"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

// IngestCarPort решает, новое ли объявление, и сохраняет его.
// true — запись сохранена, false — отсечена (дубликат или не прошла
// дешевую проверку обязательных полей).
type IngestCarPort interface {
	Ingest(ctx context.Context, raw domain.RawCarData, baseURL, siteName string) (bool, error)
}
