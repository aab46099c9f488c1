package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
	"github.com/RubachokBoss/quizspark/internal/repository"
)

const exportContentType = "text/csv"

var exportHeader = []string{
	"student_id", "student_name", "score", "total_questions", "percentage", "attempt_date", "retest_status",
}

// ExportService выгружает таблицу попыток квиза в CSV в объектное хранилище.
type ExportService interface {
	ExportQuiz(ctx context.Context, quiz *models.Quiz) (*models.ResultsExport, error)
	RefreshQuiz(ctx context.Context, quizID string) error
}

type exportService struct {
	quizRepo   repository.QuizRepository
	resultRepo repository.ResultRepository
	storage    repository.ObjectStorage
	urlExpiry  time.Duration
	logger     zerolog.Logger
}

func NewExportService(
	quizRepo repository.QuizRepository,
	resultRepo repository.ResultRepository,
	storage repository.ObjectStorage,
	urlExpiry time.Duration,
	logger zerolog.Logger,
) ExportService {
	if urlExpiry <= 0 {
		urlExpiry = 15 * time.Minute
	}
	return &exportService{
		quizRepo:   quizRepo,
		resultRepo: resultRepo,
		storage:    storage,
		urlExpiry:  urlExpiry,
		logger:     logger,
	}
}

func exportObjectName(quizCode string) string {
	return fmt.Sprintf("results/%s.csv", quizCode)
}

func (s *exportService) ExportQuiz(ctx context.Context, quiz *models.Quiz) (*models.ResultsExport, error) {
	rows, err := s.upload(ctx, quiz)
	if err != nil {
		return nil, err
	}

	object := exportObjectName(quiz.Code)
	url, err := s.storage.PresignedGetURL(ctx, object, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign export: %w", err)
	}

	return &models.ResultsExport{
		Object:    object,
		URL:       url,
		Rows:      rows,
		ExpiresAt: time.Now().Add(s.urlExpiry),
	}, nil
}

// RefreshQuiz перегенерирует выгрузку без ссылки; вызывается воркером.
func (s *exportService) RefreshQuiz(ctx context.Context, quizID string) error {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz == nil {
		return ErrQuizNotFound
	}

	_, err = s.upload(ctx, quiz)
	return err
}

func (s *exportService) upload(ctx context.Context, quiz *models.Quiz) (int, error) {
	attempts, err := s.resultRepo.AttemptsForQuiz(ctx, quiz.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list attempts: %w", err)
	}

	body, err := renderAttemptsCSV(attempts)
	if err != nil {
		return 0, err
	}

	object := exportObjectName(quiz.Code)
	if err := s.storage.PutObject(ctx, object, bytes.NewReader(body), int64(len(body)), exportContentType); err != nil {
		return 0, fmt.Errorf("failed to store export: %w", err)
	}

	s.logger.Info().
		Str("quiz_id", quiz.ID).
		Str("object", object).
		Int("rows", len(attempts)).
		Msg("Quiz results exported")

	return len(attempts), nil
}

func renderAttemptsCSV(attempts []models.QuizAttemptRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, a := range attempts {
		retest := ""
		if a.RetestStatus != nil {
			retest = *a.RetestStatus
		}
		record := []string{
			a.StudentID,
			a.StudentName,
			strconv.Itoa(a.Score),
			strconv.Itoa(a.TotalQuestions),
			strconv.FormatFloat(a.Percentage, 'f', 2, 64),
			a.AttemptDate.UTC().Format(time.RFC3339),
			retest,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
