package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/quizspark/internal/models"
)

type countingLoader struct {
	calls atomic.Int32
	quiz  *models.Quiz
	err   error
	delay time.Duration
}

func (l *countingLoader) GetByCode(ctx context.Context, code string) (*models.Quiz, error) {
	l.calls.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.err != nil {
		return nil, l.err
	}
	if l.quiz == nil || l.quiz.Code != code {
		return nil, nil
	}
	copied := *l.quiz
	return &copied, nil
}

func testQuiz() *models.Quiz {
	return &models.Quiz{
		ID:   "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Name: "Biology",
		Code: "BIO234",
		Questions: models.Questions{
			{QuestionText: "Cell powerhouse?", Options: []models.Option{{Text: "Mitochondria", IsCorrect: true}, {Text: "Nucleus"}}},
		},
	}
}

func newCache(t *testing.T, loader QuizLoader, ttl time.Duration) (*QuizCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewQuizCache(client, loader, ttl, zerolog.Nop()), mr
}

func TestQuizCacheLoadsOnceThenServesFromRedis(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{quiz: testQuiz()}
	c, mr := newCache(t, loader, time.Minute)

	first, err := c.GetByCode(ctx, "BIO234")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, mr.Exists("quiz:code:BIO234"))

	second, err := c.GetByCode(ctx, "BIO234")
	require.NoError(t, err)
	assert.Equal(t, first.Questions, second.Questions)
	assert.Equal(t, int32(1), loader.calls.Load())

	ttl := mr.TTL("quiz:code:BIO234")
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.LessOrEqual(t, ttl, time.Minute+6*time.Second)
}

func TestQuizCacheMissingCodeIsNotCached(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{quiz: testQuiz()}
	c, mr := newCache(t, loader, time.Minute)

	quiz, err := c.GetByCode(ctx, "NOPE22")
	require.NoError(t, err)
	assert.Nil(t, quiz)
	assert.False(t, mr.Exists("quiz:code:NOPE22"))
}

func TestQuizCacheSingleflight(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{quiz: testQuiz(), delay: 50 * time.Millisecond}
	c, _ := newCache(t, loader, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			quiz, err := c.GetByCode(ctx, "BIO234")
			assert.NoError(t, err)
			assert.NotNil(t, quiz)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestQuizCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{quiz: testQuiz()}
	c, mr := newCache(t, loader, time.Minute)

	_, err := c.GetByCode(ctx, "BIO234")
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, "BIO234"))
	assert.False(t, mr.Exists("quiz:code:BIO234"))

	_, err = c.GetByCode(ctx, "BIO234")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestQuizCacheLoaderError(t *testing.T) {
	loader := &countingLoader{err: errors.New("db down")}
	c, _ := newCache(t, loader, time.Minute)

	_, err := c.GetByCode(context.Background(), "BIO234")
	assert.EqualError(t, err, "db down")
}

func TestQuizCacheCorruptEntryFallsBackToLoader(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{quiz: testQuiz()}
	c, mr := newCache(t, loader, time.Minute)

	require.NoError(t, mr.Set("quiz:code:BIO234", "{not json"))

	quiz, err := c.GetByCode(ctx, "BIO234")
	require.NoError(t, err)
	require.NotNil(t, quiz)
	assert.Equal(t, "Biology", quiz.Name)
	assert.Equal(t, int32(1), loader.calls.Load())
}
