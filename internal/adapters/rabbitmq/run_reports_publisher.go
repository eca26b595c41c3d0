package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Thebloodraccoon/car-parser/internal/constants"
	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
)

// RunReportsPublisher публикует итоги запусков в обменник парсера.
// Реализует RunReporterPort.
type RunReportsPublisher struct {
	channel    *amqp.Channel
	exchange   string
	routingKey string
}

// NewRunReportsPublisher объявляет обменник и возвращает издателя.
func NewRunReportsPublisher(conn *amqp.Connection) (*RunReportsPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq publisher: connection cannot be nil")
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq publisher: failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		constants.ParserExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		return nil, fmt.Errorf("rabbitmq publisher: failed to declare exchange: %w", err)
	}

	return &RunReportsPublisher{
		channel:    channel,
		exchange:   constants.ParserExchange,
		routingKey: constants.RoutingKeyRunReports,
	}, nil
}

// ReportRun отправляет статистику завершенного запуска.
func (p *RunReportsPublisher) ReportRun(ctx context.Context, taskID uuid.UUID, siteID string, stats domain.RunStats) error {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "RunReportsPublisher",
		"task_id":   taskID.String(),
	})

	report := RunReportDTO{
		TaskID: taskID.String(),
		Site:   siteID,
		Stats:  stats,
	}

	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("rabbitmq publisher: failed to marshal run report: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(publishCtx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publisher: failed to publish run report: %w", err)
	}

	logger.Info("Published run report", port.Fields{
		"processed": stats.Processed,
		"saved":     stats.Saved,
		"errors":    stats.Errors,
	})

	return nil
}

// Close закрывает канал издателя.
func (p *RunReportsPublisher) Close() error {
	return p.channel.Close()
}
