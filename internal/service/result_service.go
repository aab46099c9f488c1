package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
	"github.com/RubachokBoss/quizspark/internal/repository"
)

type ResultService interface {
	LeaderboardFor(ctx context.Context, code string) (*models.Leaderboard, error)
	AttemptsForQuiz(ctx context.Context, teacherID, code string) ([]models.QuizAttemptRow, error)
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
	ExportResults(ctx context.Context, teacherID, code string) (*models.ResultsExport, error)
}

type resultService struct {
	quizRepo   repository.QuizRepository
	resultRepo repository.ResultRepository
	exporter   ExportService
	logger     zerolog.Logger
}

func NewResultService(
	quizRepo repository.QuizRepository,
	resultRepo repository.ResultRepository,
	exporter ExportService,
	logger zerolog.Logger,
) ResultService {
	return &resultService{
		quizRepo:   quizRepo,
		resultRepo: resultRepo,
		exporter:   exporter,
		logger:     logger,
	}
}

func (s *resultService) quizByCode(ctx context.Context, code string) (*models.Quiz, error) {
	quiz, err := s.quizRepo.GetByCode(ctx, NormalizeQuizCode(code))
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

func (s *resultService) ownedQuiz(ctx context.Context, teacherID, code string) (*models.Quiz, error) {
	quiz, err := s.quizByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if quiz.CreatedBy != teacherID {
		return nil, ErrForbidden
	}
	return quiz, nil
}

func (s *resultService) LeaderboardFor(ctx context.Context, code string) (*models.Leaderboard, error) {
	quiz, err := s.quizByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	rankings, err := s.resultRepo.Leaderboard(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}
	if len(rankings) == 0 {
		return nil, ErrNoAttempts
	}

	return &models.Leaderboard{
		QuizName: quiz.Name,
		QuizCode: quiz.Code,
		Rankings: rankings,
	}, nil
}

func (s *resultService) AttemptsForQuiz(ctx context.Context, teacherID, code string) ([]models.QuizAttemptRow, error) {
	quiz, err := s.ownedQuiz(ctx, teacherID, code)
	if err != nil {
		return nil, err
	}

	attempts, err := s.resultRepo.AttemptsForQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, nil
}

func (s *resultService) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats, err := s.resultRepo.UserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

func (s *resultService) ExportResults(ctx context.Context, teacherID, code string) (*models.ResultsExport, error) {
	quiz, err := s.ownedQuiz(ctx, teacherID, code)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportQuiz(ctx, quiz)
}
