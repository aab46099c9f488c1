package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
	"github.com/RubachokBoss/quizspark/internal/repository"
	"github.com/RubachokBoss/quizspark/internal/service/integration"
)

const (
	quizCodeLength   = 6
	quizCodeAttempts = 5
	// 32 символа без 0/O и 1/I, чтобы byte%32 давал равномерное распределение.
	quizCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

type QuizService interface {
	CreateQuiz(ctx context.Context, teacherID string, req *models.CreateQuizRequest) (*models.CreateQuizResponse, error)
	UpdateQuiz(ctx context.Context, teacherID, quizID string, req *models.UpdateQuizRequest) (*models.Quiz, error)
	GetQuizByCode(ctx context.Context, code string) (*models.QuizView, error)
	GetQuizzesCreatedBy(ctx context.Context, teacherID string) ([]models.QuizSummary, error)
}

// QuizCache читает квизы по коду с кэшированием; реализуется cache.QuizCache.
type QuizCache interface {
	GetByCode(ctx context.Context, code string) (*models.Quiz, error)
	Invalidate(ctx context.Context, code string) error
}

type quizService struct {
	quizRepo  repository.QuizRepository
	cache     QuizCache
	publisher integration.EventPublisher
	newCode   func() (string, error)
	logger    zerolog.Logger
}

func NewQuizService(
	quizRepo repository.QuizRepository,
	cache QuizCache,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) QuizService {
	return &quizService{
		quizRepo:  quizRepo,
		cache:     cache,
		publisher: publisher,
		newCode:   GenerateQuizCode,
		logger:    logger,
	}
}

// GenerateQuizCode возвращает случайный код из quizCodeAlphabet.
func GenerateQuizCode() (string, error) {
	buf := make([]byte, quizCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	code := make([]byte, quizCodeLength)
	for i, b := range buf {
		code[i] = quizCodeAlphabet[int(b)%len(quizCodeAlphabet)]
	}
	return string(code), nil
}

// NormalizeQuizCode приводит код, введенный пользователем, к каноническому виду.
func NormalizeQuizCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *quizService) CreateQuiz(ctx context.Context, teacherID string, req *models.CreateQuizRequest) (*models.CreateQuizResponse, error) {
	if err := models.ValidateQuestions(req.Questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}

	now := time.Now()
	quiz := &models.Quiz{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.QuizName),
		CreatedBy: teacherID,
		Questions: req.Questions,
		DueDate:   req.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.insertWithCode(ctx, quiz, NormalizeQuizCode(req.QuizCode)); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("quiz_id", quiz.ID).
		Str("quiz_code", quiz.Code).
		Str("teacher_id", teacherID).
		Int("questions", len(quiz.Questions)).
		Msg("Quiz created")

	publishEvent(ctx, s.publisher, s.logger, &models.QuizEvent{
		Type:           models.EventQuizCreated,
		QuizID:         quiz.ID,
		QuizCode:       quiz.Code,
		UserID:         teacherID,
		TotalQuestions: len(quiz.Questions),
	})

	return &models.CreateQuizResponse{
		QuizID:   quiz.ID,
		QuizCode: quiz.Code,
	}, nil
}

// insertWithCode сохраняет квиз. Код, заданный учителем, не подменяется:
// при коллизии возвращается ErrQuizCodeTaken. Сгенерированный код
// перевыбирается до quizCodeAttempts раз.
func (s *quizService) insertWithCode(ctx context.Context, quiz *models.Quiz, requested string) error {
	if requested != "" {
		quiz.Code = requested
		err := s.quizRepo.Create(ctx, quiz)
		if errors.Is(err, repository.ErrUniqueViolation) {
			return ErrQuizCodeTaken
		}
		if err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		return nil
	}

	for attempt := 1; attempt <= quizCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return err
		}
		quiz.Code = code

		err = s.quizRepo.Create(ctx, quiz)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrUniqueViolation) {
			return fmt.Errorf("failed to create quiz: %w", err)
		}

		s.logger.Warn().Str("quiz_code", code).Int("attempt", attempt).Msg("Quiz code collision, retrying")
	}

	return ErrQuizCodeTaken
}

func (s *quizService) UpdateQuiz(ctx context.Context, teacherID, quizID string, req *models.UpdateQuizRequest) (*models.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	if quiz.CreatedBy != teacherID {
		return nil, ErrForbidden
	}

	if err := models.ValidateQuestions(req.Questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuiz, err)
	}

	quiz.Name = strings.TrimSpace(req.QuizName)
	quiz.DueDate = req.DueDate
	quiz.Questions = req.Questions
	quiz.UpdatedAt = time.Now()

	if err := s.quizRepo.Update(ctx, quiz); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	if err := s.cache.Invalidate(ctx, quiz.Code); err != nil {
		s.logger.Error().Err(err).Str("quiz_code", quiz.Code).Msg("Failed to invalidate quiz cache")
	}

	s.logger.Info().Str("quiz_id", quiz.ID).Msg("Quiz updated")
	return quiz, nil
}

func (s *quizService) GetQuizByCode(ctx context.Context, code string) (*models.QuizView, error) {
	quiz, err := s.cache.GetByCode(ctx, NormalizeQuizCode(code))
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}

	view := quiz.PublicView()
	return &view, nil
}

func (s *quizService) GetQuizzesCreatedBy(ctx context.Context, teacherID string) ([]models.QuizSummary, error) {
	quizzes, err := s.quizRepo.ListByCreator(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, nil
}
