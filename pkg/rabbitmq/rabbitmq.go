package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Dial подключается к брокеру, повторяя попытки до истечения ctx.
// Брокер в docker-compose поднимается дольше сервиса.
func Dial(ctx context.Context, url string, retryDelay time.Duration) (*amqp.Connection, error) {
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	for {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		case <-time.After(retryDelay):
		}
	}
}

func NewChannel(conn *amqp.Connection, prefetch int) (*amqp.Channel, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if prefetch > 0 {
		if err := channel.Qos(prefetch, 0, false); err != nil {
			channel.Close()
			return nil, fmt.Errorf("failed to set qos: %w", err)
		}
	}

	return channel, nil
}
