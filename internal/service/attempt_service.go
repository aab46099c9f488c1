package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/auth"
	"github.com/RubachokBoss/quizspark/internal/metrics"
	"github.com/RubachokBoss/quizspark/internal/models"
	"github.com/RubachokBoss/quizspark/internal/repository"
	"github.com/RubachokBoss/quizspark/internal/service/integration"
)

type AttemptService interface {
	// HasAttempted и GetResult принимают studentID == "" как "сам вызывающий".
	HasAttempted(ctx context.Context, viewer *auth.Principal, code, studentID string) (*models.AttemptStatus, error)
	Submit(ctx context.Context, studentID string, req *models.SubmitQuizRequest) (*models.SubmitResult, error)
	GetResult(ctx context.Context, viewer *auth.Principal, code, studentID string) (*models.QuizResult, error)
	AttemptedQuizzes(ctx context.Context, studentID string) ([]models.AttemptedQuiz, error)
}

type attemptService struct {
	tx          repository.Transactor
	quizRepo    repository.QuizRepository
	attemptRepo repository.AttemptRepository
	cache       QuizCache
	publisher   integration.EventPublisher
	logger      zerolog.Logger
}

func NewAttemptService(
	tx repository.Transactor,
	quizRepo repository.QuizRepository,
	attemptRepo repository.AttemptRepository,
	cache QuizCache,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) AttemptService {
	return &attemptService{
		tx:          tx,
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		cache:       cache,
		publisher:   publisher,
		logger:      logger,
	}
}

// resolveSubject проверяет, что viewer смотрит свою попытку или попытку
// по собственному квизу.
func resolveSubject(viewer *auth.Principal, quiz *models.Quiz, studentID string) (string, error) {
	if studentID == "" || studentID == viewer.AccountID {
		return viewer.AccountID, nil
	}
	if viewer.IsTeacher() && quiz.CreatedBy == viewer.AccountID {
		return studentID, nil
	}
	return "", ErrForbidden
}

func (s *attemptService) loadQuiz(ctx context.Context, code string) (*models.Quiz, error) {
	quiz, err := s.cache.GetByCode(ctx, NormalizeQuizCode(code))
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

func (s *attemptService) HasAttempted(ctx context.Context, viewer *auth.Principal, code, studentID string) (*models.AttemptStatus, error) {
	quiz, err := s.loadQuiz(ctx, code)
	if err != nil {
		return nil, err
	}

	subject, err := resolveSubject(viewer, quiz, studentID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.attemptRepo.GetByQuizAndUser(ctx, quiz.ID, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt == nil {
		return &models.AttemptStatus{HasAttempted: false}, nil
	}

	status, err := s.attemptRepo.LatestRetestStatus(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get retest status: %w", err)
	}
	if status != nil && *status == models.RetestApproved {
		return &models.AttemptStatus{
			HasAttempted: false,
			Message:      "Retest approved, you can take the quiz again",
		}, nil
	}

	return &models.AttemptStatus{
		HasAttempted: true,
		Message:      "You have already attempted this quiz",
		AttemptID:    attempt.ID,
	}, nil
}

func (s *attemptService) Submit(ctx context.Context, studentID string, req *models.SubmitQuizRequest) (*models.SubmitResult, error) {
	code := NormalizeQuizCode(req.QuizCode)
	answers := req.Answers
	if answers == nil {
		answers = models.Answers{}
	}

	var (
		quiz   *models.Quiz
		result *models.SubmitResult
	)

	// Квиз блокируется FOR SHARE, чтобы правка вопросов не прошла между подсчетом и вставкой.
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		quiz, err = s.quizRepo.GetByCodeForShare(ctx, code)
		if err != nil {
			return fmt.Errorf("failed to get quiz: %w", err)
		}
		if quiz == nil {
			return ErrQuizNotFound
		}

		score, results := ScoreAttempt(quiz.Questions, answers)
		attempt := &models.Attempt{
			ID:             uuid.New().String(),
			QuizID:         quiz.ID,
			UserID:         studentID,
			Score:          score,
			TotalQuestions: len(quiz.Questions),
			Answers:        answers,
			AttemptDate:    time.Now(),
		}

		if err := s.attemptRepo.Create(ctx, attempt); err != nil {
			if errors.Is(err, repository.ErrUniqueViolation) {
				return ErrAlreadyAttempted
			}
			return fmt.Errorf("failed to save attempt: %w", err)
		}

		result = &models.SubmitResult{
			AttemptID:       attempt.ID,
			Score:           score,
			TotalQuestions:  attempt.TotalQuestions,
			QuestionResults: results,
		}
		return nil
	})
	if err != nil {
		metrics.AttemptsScored.WithLabelValues(submitOutcome(err)).Inc()
		return nil, err
	}

	metrics.AttemptsScored.WithLabelValues("scored").Inc()
	if result.TotalQuestions > 0 {
		metrics.AttemptScorePercent.Observe(float64(result.Score) * 100 / float64(result.TotalQuestions))
	}

	s.logger.Info().
		Str("attempt_id", result.AttemptID).
		Str("quiz_id", quiz.ID).
		Str("student_id", studentID).
		Int("score", result.Score).
		Int("total", result.TotalQuestions).
		Msg("Quiz attempt scored")

	publishEvent(ctx, s.publisher, s.logger, &models.QuizEvent{
		Type:           models.EventAttemptSubmitted,
		QuizID:         quiz.ID,
		QuizCode:       quiz.Code,
		UserID:         studentID,
		AttemptID:      result.AttemptID,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
	})

	return result, nil
}

func submitOutcome(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyAttempted):
		return "duplicate"
	case errors.Is(err, ErrQuizNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (s *attemptService) GetResult(ctx context.Context, viewer *auth.Principal, code, studentID string) (*models.QuizResult, error) {
	quiz, err := s.loadQuiz(ctx, code)
	if err != nil {
		return nil, err
	}

	subject, err := resolveSubject(viewer, quiz, studentID)
	if err != nil {
		return nil, err
	}

	attempt, err := s.attemptRepo.GetByQuizAndUser(ctx, quiz.ID, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	result := &models.QuizResult{
		QuizID:         quiz.ID,
		QuizName:       quiz.Name,
		QuizCode:       quiz.Code,
		StudentID:      subject,
		TotalQuestions: len(quiz.Questions),
		UserAnswers:    models.Answers{},
	}

	// Без попытки отдаем квиз без правильных ответов.
	if attempt == nil {
		view := quiz.PublicView()
		result.Quiz = &view
		return result, nil
	}

	score := attempt.Score
	date := attempt.AttemptDate
	result.HasAttempted = true
	result.AttemptID = attempt.ID
	result.Score = &score
	result.TotalQuestions = attempt.TotalQuestions
	result.AttemptDate = &date
	result.UserAnswers = attempt.Answers
	result.Questions = AnnotateAttempt(quiz.Questions, attempt.Answers)

	return result, nil
}

func (s *attemptService) AttemptedQuizzes(ctx context.Context, studentID string) ([]models.AttemptedQuiz, error) {
	attempts, err := s.attemptRepo.ListByUser(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}
