package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/config"
	"github.com/RubachokBoss/quizspark/internal/worker"
	"github.com/RubachokBoss/quizspark/internal/worker/queue"
	"github.com/RubachokBoss/quizspark/pkg/rabbitmq"
)

const brokerConnectTimeout = 60 * time.Second

// Worker обновляет CSV-выгрузки результатов по событиям из RabbitMQ.
type Worker struct {
	events *worker.EventWorker
	conn   *amqp.Connection
	db     *sql.DB
	logger zerolog.Logger
}

func NewWorker(ctx context.Context, cfg *config.Config, log zerolog.Logger, db *sql.DB) (*Worker, error) {
	repos := newRepositories(db, log)

	exporter, err := newExportService(cfg, repos, log)
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, brokerConnectTimeout)
	defer cancel()

	conn, err := rabbitmq.Dial(dialCtx, cfg.RabbitMQ.URL, 2*time.Second)
	if err != nil {
		return nil, err
	}

	channel, err := rabbitmq.NewChannel(conn, cfg.Worker.MaxWorkers)
	if err != nil {
		conn.Close()
		return nil, err
	}

	consumer, err := queue.NewRabbitMQConsumer(
		channel,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.RoutingKey,
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.ConsumerTag,
		log,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	pool := worker.NewPool(cfg.Worker.MaxWorkers, log)

	return &Worker{
		events: worker.NewEventWorker(pool, consumer, exporter, log),
		conn:   conn,
		db:     db,
		logger: log,
	}, nil
}

// Run обрабатывает события, пока не отменен ctx или не закрылось соединение с брокером.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.events.Start(ctx); err != nil {
		return err
	}

	closed := w.conn.NotifyClose(make(chan *amqp.Error, 1))

	var runErr error
	select {
	case <-ctx.Done():
	case amqpErr := <-closed:
		if amqpErr != nil {
			runErr = fmt.Errorf("rabbitmq connection closed: %w", amqpErr)
		}
	}

	w.events.Stop()

	if err := w.conn.Close(); err != nil && !w.conn.IsClosed() {
		w.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
	}
	if err := w.db.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close database connection")
	}

	return runErr
}
