package usecases_port

import (
	"context"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

// RunParserPort — входная точка одного запуска парсера. Возвращает
// статистику всегда: сбои ниже границы марки превращаются в счетчики,
// а не в ошибку.
type RunParserPort interface {
	Run(ctx context.Context, siteID string, concurrency int, preferredBrands []string) domain.RunStats
}
