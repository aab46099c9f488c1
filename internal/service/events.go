package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
	"github.com/RubachokBoss/quizspark/internal/service/integration"
)

// publishEvent отправляет событие после коммита. Ошибка брокера не
// откатывает уже сохраненное изменение, поэтому только логируется.
func publishEvent(ctx context.Context, publisher integration.EventPublisher, logger zerolog.Logger, event *models.QuizEvent) {
	if publisher == nil {
		return
	}
	event.Timestamp = time.Now().Unix()

	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error().Err(err).
			Str("type", event.Type).
			Str("quiz_id", event.QuizID).
			Msg("Failed to publish event")
	}
}
