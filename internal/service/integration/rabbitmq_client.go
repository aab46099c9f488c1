package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/metrics"
	"github.com/RubachokBoss/quizspark/internal/models"
)

type EventPublisher interface {
	Publish(ctx context.Context, event *models.QuizEvent) error
	Close() error
}

type rabbitMQClient struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	exchange   string
	routingKey string
	queueName  string
	logger     zerolog.Logger
}

func NewRabbitMQClient(url, exchange, routingKey, queueName string, logger zerolog.Logger) (EventPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareTopology(channel, exchange, routingKey, queueName); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	logger.Info().
		Str("exchange", exchange).
		Str("queue", queueName).
		Str("routing_key", routingKey).
		Msg("Connected to RabbitMQ")

	return &rabbitMQClient{
		conn:       conn,
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
		queueName:  queueName,
		logger:     logger,
	}, nil
}

// DeclareTopology объявляет durable direct exchange и очередь событий.
// Вызывается и издателем, и воркером, поэтому порядок запуска не важен.
func DeclareTopology(channel *amqp091.Channel, exchange, routingKey, queueName string) error {
	err := channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		queue.Name, // queue name
		routingKey, // routing key
		exchange,   // exchange
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	return nil
}

func (c *rabbitMQClient) Publish(ctx context.Context, event *models.QuizEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		c.exchange,   // exchange
		c.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Type:         event.Type,
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(event.Type, "error").Inc()
		return fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.EventsPublished.WithLabelValues(event.Type, "ok").Inc()
	c.logger.Debug().
		Str("type", event.Type).
		Str("quiz_id", event.QuizID).
		Msg("Event published")

	return nil
}

func (c *rabbitMQClient) Close() error {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close RabbitMQ channel")
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	return nil
}

type nopPublisher struct {
	logger zerolog.Logger
}

// NewNopPublisher используется, когда брокер недоступен: события только логируются.
func NewNopPublisher(logger zerolog.Logger) EventPublisher {
	return &nopPublisher{logger: logger}
}

func (p *nopPublisher) Publish(ctx context.Context, event *models.QuizEvent) error {
	metrics.EventsPublished.WithLabelValues(event.Type, "skipped").Inc()
	p.logger.Debug().Str("type", event.Type).Str("quiz_id", event.QuizID).Msg("Event dropped: broker not configured")
	return nil
}

func (p *nopPublisher) Close() error {
	return nil
}
