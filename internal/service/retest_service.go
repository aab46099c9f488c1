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

type RetestService interface {
	RequestRetest(ctx context.Context, studentID string, req *models.CreateRetestRequest) (*models.RetestRequest, error)
	ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.RetestRequestDetails, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.RetestRequestDetails, error)
	ResolveRetest(ctx context.Context, teacherID, requestID string, req *models.ResolveRetestRequest) (*models.RetestRequest, error)
}

type retestService struct {
	tx          repository.Transactor
	retestRepo  repository.RetestRepository
	attemptRepo repository.AttemptRepository
	quizRepo    repository.QuizRepository
	accountRepo repository.AccountRepository
	hasher      auth.PasswordHasher
	publisher   integration.EventPublisher
	logger      zerolog.Logger
}

func NewRetestService(
	tx repository.Transactor,
	retestRepo repository.RetestRepository,
	attemptRepo repository.AttemptRepository,
	quizRepo repository.QuizRepository,
	accountRepo repository.AccountRepository,
	hasher auth.PasswordHasher,
	publisher integration.EventPublisher,
	logger zerolog.Logger,
) RetestService {
	return &retestService{
		tx:          tx,
		retestRepo:  retestRepo,
		attemptRepo: attemptRepo,
		quizRepo:    quizRepo,
		accountRepo: accountRepo,
		hasher:      hasher,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *retestService) RequestRetest(ctx context.Context, studentID string, req *models.CreateRetestRequest) (*models.RetestRequest, error) {
	if req.QuizID == "" {
		return nil, ErrMissingQuizID
	}

	attempt, err := s.attemptRepo.GetByID(ctx, req.AttemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	// Чужая попытка неотличима от несуществующей.
	if attempt == nil || attempt.UserID != studentID || attempt.QuizID != req.QuizID {
		return nil, ErrAttemptNotFound
	}

	now := time.Now()
	attemptID := attempt.ID
	request := &models.RetestRequest{
		ID:          uuid.New().String(),
		StudentID:   studentID,
		QuizID:      attempt.QuizID,
		AttemptID:   &attemptID,
		RequestDate: now,
		Status:      models.RetestPending,
		UpdatedAt:   now,
	}

	if err := s.retestRepo.Create(ctx, request); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrRetestPending
		}
		return nil, fmt.Errorf("failed to create retest request: %w", err)
	}

	s.logger.Info().
		Str("request_id", request.ID).
		Str("attempt_id", attemptID).
		Str("student_id", studentID).
		Msg("Retest requested")

	publishEvent(ctx, s.publisher, s.logger, &models.QuizEvent{
		Type:      models.EventRetestRequested,
		QuizID:    request.QuizID,
		UserID:    studentID,
		AttemptID: attemptID,
		RequestID: request.ID,
		Status:    string(request.Status),
	})

	return request, nil
}

func (s *retestService) ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.RetestRequestDetails, error) {
	requests, err := s.retestRepo.ListPendingForTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list retest requests: %w", err)
	}
	return requests, nil
}

func (s *retestService) ListForStudent(ctx context.Context, studentID string) ([]models.RetestRequestDetails, error) {
	requests, err := s.retestRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list retest requests: %w", err)
	}
	return requests, nil
}

func (s *retestService) ResolveRetest(ctx context.Context, teacherID, requestID string, req *models.ResolveRetestRequest) (*models.RetestRequest, error) {
	if req.Status != models.RetestApproved && req.Status != models.RetestDeclined {
		return nil, ErrInvalidStatus
	}

	// Пароль проверяем до транзакции, чтобы не держать блокировку на время argon2.
	if err := s.verifyTeacherPassword(ctx, teacherID, req.TeacherPassword); err != nil {
		return nil, err
	}

	var resolved *models.RetestRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.retestRepo.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return fmt.Errorf("failed to get retest request: %w", err)
		}
		if request == nil {
			return ErrRetestNotFound
		}

		quiz, err := s.quizRepo.GetByID(ctx, request.QuizID)
		if err != nil {
			return fmt.Errorf("failed to get quiz: %w", err)
		}
		if quiz == nil {
			return ErrQuizNotFound
		}
		if quiz.CreatedBy != teacherID {
			return ErrForbidden
		}

		if request.Status != models.RetestPending {
			return ErrRetestAlreadyResolved
		}

		request.Status = req.Status
		request.UpdatedAt = time.Now()

		if req.Status == models.RetestDeclined {
			if err := s.retestRepo.UpdateStatus(ctx, request); err != nil {
				return fmt.Errorf("failed to update retest request: %w", err)
			}
			resolved = request
			return nil
		}

		// Одобрение: удаляем запрос и попытку одной транзакцией.
		if err := s.retestRepo.Delete(ctx, request.ID); err != nil {
			return fmt.Errorf("failed to delete retest request: %w", err)
		}
		if request.AttemptID != nil {
			err := s.attemptRepo.Delete(ctx, *request.AttemptID)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("failed to delete attempt: %w", err)
			}
		}

		resolved = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RetestResolutions.WithLabelValues(string(resolved.Status)).Inc()

	s.logger.Info().
		Str("request_id", resolved.ID).
		Str("status", string(resolved.Status)).
		Str("teacher_id", teacherID).
		Msg("Retest request resolved")

	event := &models.QuizEvent{
		Type:      models.EventRetestResolved,
		QuizID:    resolved.QuizID,
		UserID:    resolved.StudentID,
		RequestID: resolved.ID,
		Status:    string(resolved.Status),
	}
	if resolved.AttemptID != nil {
		event.AttemptID = *resolved.AttemptID
	}
	publishEvent(ctx, s.publisher, s.logger, event)

	return resolved, nil
}

func (s *retestService) verifyTeacherPassword(ctx context.Context, teacherID, password string) error {
	teacher, err := s.accountRepo.GetByID(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("failed to get teacher: %w", err)
	}
	if teacher == nil || teacher.Kind != models.KindTeacher {
		return ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, teacher.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}
