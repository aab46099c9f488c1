package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
	"github.com/RubachokBoss/quizspark/internal/repository"
)

type SubscriptionService interface {
	Subscribe(ctx context.Context, studentID, teacherID string) error
	Unsubscribe(ctx context.Context, studentID, teacherID string) error
	ListSubscriptions(ctx context.Context, studentID string) ([]models.AccountView, error)
	UpcomingQuizzesFor(ctx context.Context, studentID string) ([]models.UpcomingQuiz, error)
}

type subscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	accountRepo      repository.AccountRepository
	logger           zerolog.Logger
}

func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	accountRepo repository.AccountRepository,
	logger zerolog.Logger,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		accountRepo:      accountRepo,
		logger:           logger,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, studentID, teacherID string) error {
	teacher, err := s.accountRepo.GetByID(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("failed to get teacher: %w", err)
	}
	if teacher == nil || teacher.Kind != models.KindTeacher {
		return ErrTeacherNotFound
	}

	created, err := s.subscriptionRepo.Subscribe(ctx, studentID, teacherID)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	s.logger.Info().
		Str("student_id", studentID).
		Str("teacher_id", teacherID).
		Bool("created", created).
		Msg("Student subscribed to teacher")

	return nil
}

// Unsubscribe ничего не делает, если подписки не было.
func (s *subscriptionService) Unsubscribe(ctx context.Context, studentID, teacherID string) error {
	removed, err := s.subscriptionRepo.Unsubscribe(ctx, studentID, teacherID)
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	s.logger.Info().
		Str("student_id", studentID).
		Str("teacher_id", teacherID).
		Bool("removed", removed).
		Msg("Student unsubscribed from teacher")

	return nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, studentID string) ([]models.AccountView, error) {
	teachers, err := s.subscriptionRepo.ListTeachers(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return teachers, nil
}

func (s *subscriptionService) UpcomingQuizzesFor(ctx context.Context, studentID string) ([]models.UpcomingQuiz, error) {
	quizzes, err := s.subscriptionRepo.UpcomingQuizzes(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming quizzes: %w", err)
	}
	return quizzes, nil
}
