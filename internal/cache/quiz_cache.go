package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/RubachokBoss/quizspark/internal/models"
)

// QuizLoader достает квиз из основного хранилища при промахе кеша.
type QuizLoader interface {
	GetByCode(ctx context.Context, code string) (*models.Quiz, error)
}

// QuizCache хранит квизы в Redis по коду: quiz:code:{code} -> JSON.
type QuizCache struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	logger zerolog.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizCache(client *redis.Client, loader QuizLoader, ttl time.Duration, logger zerolog.Logger) *QuizCache {
	return &QuizCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetByCode возвращает nil, nil для несуществующего кода.
func (c *QuizCache) GetByCode(ctx context.Context, code string) (*models.Quiz, error) {
	if quiz, ok := c.lookup(ctx, code); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(code, func() (interface{}, error) {
		if quiz, ok := c.lookup(ctx, code); ok {
			return quiz, nil
		}

		quiz, err := c.loader.GetByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if quiz == nil {
			return (*models.Quiz)(nil), nil
		}

		c.store(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Quiz), nil
}

func (c *QuizCache) Invalidate(ctx context.Context, code string) error {
	if err := c.client.Del(ctx, key(code)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate quiz cache: %w", err)
	}
	return nil
}

func (c *QuizCache) lookup(ctx context.Context, code string) (*models.Quiz, bool) {
	raw, err := c.client.Get(ctx, key(code)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("quiz_code", code).Msg("Quiz cache read failed")
		}
		return nil, false
	}

	var quiz models.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		c.logger.Warn().Err(err).Str("quiz_code", code).Msg("Dropping corrupt quiz cache entry")
		_ = c.client.Del(ctx, key(code)).Err()
		return nil, false
	}

	return &quiz, true
}

func (c *QuizCache) store(ctx context.Context, quiz *models.Quiz) {
	raw, err := json.Marshal(quiz)
	if err != nil {
		c.logger.Warn().Err(err).Str("quiz_code", quiz.Code).Msg("Failed to encode quiz for cache")
		return
	}

	if err := c.client.Set(ctx, key(quiz.Code), raw, c.ttlWithJitter()).Err(); err != nil {
		c.logger.Warn().Err(err).Str("quiz_code", quiz.Code).Msg("Quiz cache write failed")
	}
}

// ttlWithJitter добавляет до 10% к TTL, чтобы записи не истекали пачкой.
func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10

	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func key(code string) string {
	return "quiz:code:" + code
}
