package port

import (
	"context"

	"github.com/Thebloodraccoon/car-parser/internal/core/domain"

	"github.com/google/uuid"
)

// RunReporterPort отправляет итоговую статистику запуска внешнему потребителю.
type RunReporterPort interface {
	ReportRun(ctx context.Context, taskID uuid.UUID, siteID string, stats domain.RunStats) error
}
