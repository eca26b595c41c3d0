package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Thebloodraccoon/car-parser/internal/constants"
	"github.com/Thebloodraccoon/car-parser/internal/contextkeys"
	"github.com/Thebloodraccoon/car-parser/internal/core/port"
	usecases_port "github.com/Thebloodraccoon/car-parser/internal/core/port/usecases"
)

// TasksConsumer слушает очередь parse_tasks и запускает парсер на каждую
// задачу. Итог запуска уходит обратно через reporter.
type TasksConsumer struct {
	channel     *amqp.Channel
	queue       string
	runParserUC usecases_port.RunParserPort
	reporter    port.RunReporterPort
	logger      port.LoggerPort
}

// NewTasksConsumer объявляет топологию очереди задач и возвращает консьюмера.
func NewTasksConsumer(
	conn *amqp.Connection,
	runParserUC usecases_port.RunParserPort,
	reporter port.RunReporterPort,
	logger port.LoggerPort,
) (*TasksConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq consumer: connection cannot be nil")
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consumer: failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		constants.ParserExchange, "topic", true, false, false, false, nil,
	); err != nil {
		channel.Close()
		return nil, fmt.Errorf("rabbitmq consumer: failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		constants.QueueParseTasks,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		return nil, fmt.Errorf("rabbitmq consumer: failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(
		queue.Name, constants.RoutingKeyParseTasks, constants.ParserExchange, false, nil,
	); err != nil {
		channel.Close()
		return nil, fmt.Errorf("rabbitmq consumer: failed to bind queue: %w", err)
	}

	// Запуск парсера - долгая операция, держим не больше одной задачи за раз
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		return nil, fmt.Errorf("rabbitmq consumer: failed to set QoS: %w", err)
	}

	return &TasksConsumer{
		channel:     channel,
		queue:       queue.Name,
		runParserUC: runParserUC,
		reporter:    reporter,
		logger:      logger.WithFields(port.Fields{"component": "TasksConsumer"}),
	}, nil
}

// Run блокируется на потреблении задач до отмены контекста.
func (c *TasksConsumer) Run(ctx context.Context) error {
	deliveries, err := c.channel.Consume(
		c.queue,
		"car-parser", // consumer tag
		false,        // auto-ack: подтверждаем вручную после обработки
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq consumer: failed to start consuming: %w", err)
	}

	c.logger.Info("Waiting for parse tasks", port.Fields{"queue": c.queue})

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping tasks consumer", nil)
			return c.channel.Close()

		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq consumer: deliveries channel closed")
			}
			c.handleDelivery(ctx, delivery)
		}
	}
}

func (c *TasksConsumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var task ParseTaskDTO
	if err := json.Unmarshal(delivery.Body, &task); err != nil {
		c.logger.Error("Failed to unmarshal parse task, dropping message", err, nil)
		// Битое сообщение не вернется в очередь
		_ = delivery.Nack(false, false)
		return
	}

	taskID, err := uuid.Parse(task.TaskID)
	if err != nil {
		taskID = uuid.New()
	}

	taskLogger := c.logger.WithFields(port.Fields{
		"task_id": taskID.String(),
		"site":    task.Site,
	})
	taskLogger.Info("Processing parse task", port.Fields{
		"concurrency": task.Concurrency,
		"makes":       len(task.Makes),
	})

	taskCtx := contextkeys.ContextWithLogger(ctx, taskLogger)

	stats := c.runParserUC.Run(taskCtx, task.Site, task.Concurrency, task.Makes)

	if err := c.reporter.ReportRun(taskCtx, taskID, task.Site, stats); err != nil {
		taskLogger.Error("Failed to report run results", err, nil)
	}

	if err := delivery.Ack(false); err != nil {
		taskLogger.Error("Failed to ack parse task", err, nil)
	}
}
