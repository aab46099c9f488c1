package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/service/integration"
)

// Message отвязывает обработчик от amqp.Delivery, чтобы его можно было тестировать без брокера.
type Message struct {
	Type      string
	Body      []byte
	Timestamp time.Time
	Ack       func() error
	Nack      func(requeue bool) error
}

type Consumer interface {
	Consume(ctx context.Context) (<-chan Message, error)
	QueueLength() (int, error)
	Close() error
}

type rabbitMQConsumer struct {
	channel     *amqp.Channel
	queue       string
	consumerTag string
	logger      zerolog.Logger
}

// NewRabbitMQConsumer объявляет ту же топологию, что и издатель событий.
func NewRabbitMQConsumer(channel *amqp.Channel, exchange, routingKey, queue, consumerTag string, logger zerolog.Logger) (Consumer, error) {
	if err := integration.DeclareTopology(channel, exchange, routingKey, queue); err != nil {
		return nil, err
	}

	return &rabbitMQConsumer{
		channel:     channel,
		queue:       queue,
		consumerTag: consumerTag,
		logger:      logger,
	}, nil
}

func (c *rabbitMQConsumer) Consume(ctx context.Context) (<-chan Message, error) {
	deliveries, err := c.channel.Consume(
		c.queue,       // queue
		c.consumerTag, // consumer
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	output := make(chan Message)

	go func() {
		defer close(output)

		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Msg("Stopping RabbitMQ consumer")
				return
			case d, ok := <-deliveries:
				if !ok {
					c.logger.Warn().Msg("RabbitMQ delivery channel closed")
					return
				}

				msg := Message{
					Type:      d.Type,
					Body:      d.Body,
					Timestamp: d.Timestamp,
					Ack:       func() error { return d.Ack(false) },
					Nack:      func(requeue bool) error { return d.Nack(false, requeue) },
				}

				select {
				case output <- msg:
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				}
			}
		}
	}()

	c.logger.Info().
		Str("queue", c.queue).
		Str("consumer_tag", c.consumerTag).
		Msg("RabbitMQ consumer started")

	return output, nil
}

func (c *rabbitMQConsumer) QueueLength() (int, error) {
	queue, err := c.channel.QueueDeclarePassive(
		c.queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return 0, err
	}

	return queue.Messages, nil
}

func (c *rabbitMQConsumer) Close() error {
	if err := c.channel.Cancel(c.consumerTag, false); err != nil {
		c.logger.Error().Err(err).Msg("Failed to cancel RabbitMQ consumer")
	}
	if err := c.channel.Close(); err != nil {
		return fmt.Errorf("failed to close channel: %w", err)
	}

	c.logger.Info().Msg("RabbitMQ consumer closed")
	return nil
}
