package port

import (
	"context"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"

	"github.com/google/uuid"
)

// CarFilter — параметры выборки для REST-слоя.
type CarFilter struct {
	Make   *string
	Year   *int
	Limit  int
	Offset int
}

// CarStoragePort — контракт хранилища объявлений. Exists и Insert —
// единственные операции, которыми пользуется пайплайн загрузки; остальное
// обслуживает REST API.
type CarStoragePort interface {
	// Exists проверяет наличие записи по натуральному ключу. Отсутствующие
	// поля ключа в сравнении не участвуют.
	Exists(ctx context.Context, key domain.NaturalKey) (bool, error)

	// Insert сохраняет новую запись. Это не upsert: совпадение по ключу
	// должно быть отсечено до вызова.
	Insert(ctx context.Context, car domain.CarListing) (uuid.UUID, error)

	GetByID(ctx context.Context, id uuid.UUID) (*domain.CarListing, error)
	List(ctx context.Context, filter CarFilter) ([]domain.CarListing, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.CarUpdate) (*domain.CarListing, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
