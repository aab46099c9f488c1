package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/metrics"
	"github.com/RubachokBoss/quizspark/internal/models"
	"github.com/RubachokBoss/quizspark/internal/service"
	"github.com/RubachokBoss/quizspark/internal/worker/queue"
)

// ExportRefresher перестраивает CSV-выгрузку результатов квиза.
type ExportRefresher interface {
	RefreshQuiz(ctx context.Context, quizID string) error
}

type Stats struct {
	Pool           PoolStats `json:"pool"`
	TotalProcessed int       `json:"total_processed"`
	Skipped        int       `json:"skipped"`
	FailedJobs     int       `json:"failed_jobs"`
	QueueLength    int       `json:"queue_length"`
}

// EventWorker читает доменные события из очереди и обновляет выгрузки
// результатов после новых попыток и решений по пересдачам.
type EventWorker struct {
	pool      *Pool
	consumer  queue.Consumer
	exporter  ExportRefresher
	logger    zerolog.Logger
	stats     Stats
	statsMu   sync.Mutex
	startTime time.Time
	done      chan struct{}
}

func NewEventWorker(pool *Pool, consumer queue.Consumer, exporter ExportRefresher, logger zerolog.Logger) *EventWorker {
	return &EventWorker{
		pool:     pool,
		consumer: consumer,
		exporter: exporter,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (w *EventWorker) Start(ctx context.Context) error {
	w.startTime = time.Now()
	w.pool.Start()

	msgs, err := w.consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go w.dispatch(ctx, msgs)

	w.logger.Info().Msg("Event worker started")
	return nil
}

// Stop ждет закрытия канала сообщений, затем дорабатывает принятые задачи.
func (w *EventWorker) Stop() {
	if err := w.consumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	<-w.done
	w.pool.Stop()

	stats := w.Stats()
	w.logger.Info().
		Int("total_processed", stats.TotalProcessed).
		Int("failed_jobs", stats.FailedJobs).
		Dur("uptime", time.Since(w.startTime)).
		Msg("Event worker stopped")
}

func (w *EventWorker) dispatch(ctx context.Context, msgs <-chan queue.Message) {
	defer close(w.done)

	for msg := range msgs {
		msg := msg
		err := w.pool.Submit(func() { w.handle(ctx, msg) })
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to submit message, requeueing")
			if nackErr := msg.Nack(true); nackErr != nil {
				w.logger.Error().Err(nackErr).Msg("Failed to nack message")
			}
		}
	}
}

func (w *EventWorker) handle(ctx context.Context, msg queue.Message) {
	event, err := w.process(ctx, msg)
	eventType := "unknown"
	if event != nil {
		eventType = event.Type
	}

	switch {
	case err == nil:
		metrics.EventsConsumed.WithLabelValues(eventType, "ok").Inc()
		w.bump(func(s *Stats) { s.TotalProcessed++ })
		if ackErr := msg.Ack(); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
	case errors.Is(err, errSkipped):
		metrics.EventsConsumed.WithLabelValues(eventType, "skipped").Inc()
		w.bump(func(s *Stats) { s.Skipped++ })
		if ackErr := msg.Ack(); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
	default:
		w.logger.Error().Err(err).Str("type", eventType).Msg("Failed to process message")
		metrics.EventsConsumed.WithLabelValues(eventType, "error").Inc()
		w.bump(func(s *Stats) { s.FailedJobs++ })

		// Битое сообщение повторять бессмысленно.
		requeue := !isPermanentError(err)
		if nackErr := msg.Nack(requeue); nackErr != nil {
			w.logger.Error().Err(nackErr).Msg("Failed to nack message")
		}
	}
}

var errSkipped = errors.New("event does not affect exports")

func (w *EventWorker) process(ctx context.Context, msg queue.Message) (*models.QuizEvent, error) {
	var event models.QuizEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return nil, permanent(fmt.Errorf("failed to unmarshal event: %w", err))
	}

	switch event.Type {
	case models.EventAttemptSubmitted, models.EventRetestRequested, models.EventRetestResolved:
	case models.EventQuizCreated:
		return &event, errSkipped
	default:
		return &event, permanent(fmt.Errorf("unknown event type %q", event.Type))
	}

	if strings.TrimSpace(event.QuizID) == "" {
		return &event, permanent(errors.New("empty quiz_id"))
	}

	w.logger.Debug().
		Str("type", event.Type).
		Str("quiz_id", event.QuizID).
		Msg("Refreshing results export")

	if err := w.exporter.RefreshQuiz(ctx, event.QuizID); err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			return &event, permanent(err)
		}
		return &event, err
	}

	return &event, nil
}

func (w *EventWorker) bump(fn func(*Stats)) {
	w.statsMu.Lock()
	fn(&w.stats)
	w.statsMu.Unlock()
}

func (w *EventWorker) Stats() Stats {
	w.statsMu.Lock()
	stats := w.stats
	w.statsMu.Unlock()

	stats.Pool = w.pool.Stats()
	if length, err := w.consumer.QueueLength(); err == nil {
		stats.QueueLength = length
	}
	return stats
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return permanentError{err: err} }

func isPermanentError(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
