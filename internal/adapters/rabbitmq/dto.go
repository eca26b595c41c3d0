package rabbitmq

import "github.com/Thebloodraccoon/car-parser/internal/core/domain"

// ParseTaskDTO - сообщение очереди parse_tasks: команда на запуск парсера.
type ParseTaskDTO struct {
	TaskID      string   `json:"task_id"`
	Site        string   `json:"site"`
	Concurrency int      `json:"concurrency"`
	Makes       []string `json:"makes"`
}

// RunReportDTO - итог запуска, публикуется с ключом parse.run_reports.
type RunReportDTO struct {
	TaskID string          `json:"task_id"`
	Site   string          `json:"site"`
	Stats  domain.RunStats `json:"stats"`
}
