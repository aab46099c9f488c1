package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
)

type AttemptRepository interface {
	// Create вставляет попытку; вторая попытка той же пары (quiz, user) дает ErrUniqueViolation.
	Create(ctx context.Context, attempt *models.Attempt) error
	GetByID(ctx context.Context, id string) (*models.Attempt, error)
	GetByQuizAndUser(ctx context.Context, quizID, userID string) (*models.Attempt, error)
	// LatestRetestStatus возвращает статус последнего запроса на пересдачу по попытке, либо nil.
	LatestRetestStatus(ctx context.Context, attemptID string) (*models.RetestStatus, error)
	ListByUser(ctx context.Context, userID string) ([]models.AttemptedQuiz, error)
	Delete(ctx context.Context, id string) error
}

type attemptRepository struct {
	*PostgresRepository
}

func NewAttemptRepository(db *sql.DB, logger zerolog.Logger) AttemptRepository {
	return &attemptRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const attemptColumns = `attempt_id, quiz_id, user_id, score, total_questions, answers, attempt_date`

func scanAttempt(row interface{ Scan(...interface{}) error }) (*models.Attempt, error) {
	attempt := &models.Attempt{}
	err := row.Scan(
		&attempt.ID,
		&attempt.QuizID,
		&attempt.UserID,
		&attempt.Score,
		&attempt.TotalQuestions,
		&attempt.Answers,
		&attempt.AttemptDate,
	)
	return attempt, err
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	query := `
		INSERT INTO quiz_attempts (attempt_id, quiz_id, user_id, score, total_questions, answers, attempt_date)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
		ON CONFLICT (quiz_id, user_id) DO NOTHING
		RETURNING attempt_id
	`

	var id string
	err := r.conn(ctx).QueryRowContext(ctx, query,
		attempt.ID,
		attempt.QuizID,
		attempt.UserID,
		attempt.Score,
		attempt.TotalQuestions,
		attempt.Answers,
		attempt.AttemptDate,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUniqueViolation
	}

	return err
}

func (r *attemptRepository) GetByID(ctx context.Context, id string) (*models.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE attempt_id = $1`

	attempt, err := scanAttempt(r.conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return attempt, nil
}

func (r *attemptRepository) GetByQuizAndUser(ctx context.Context, quizID, userID string) (*models.Attempt, error) {
	query := `
		SELECT ` + attemptColumns + `
		FROM quiz_attempts
		WHERE quiz_id = $1 AND user_id = $2
		ORDER BY attempt_date DESC
		LIMIT 1
	`

	attempt, err := scanAttempt(r.conn(ctx).QueryRowContext(ctx, query, quizID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return attempt, nil
}

func (r *attemptRepository) LatestRetestStatus(ctx context.Context, attemptID string) (*models.RetestStatus, error) {
	query := `
		SELECT status
		FROM retest_requests
		WHERE attempt_id = $1
		ORDER BY request_date DESC
		LIMIT 1
	`

	var status models.RetestStatus
	err := r.conn(ctx).QueryRowContext(ctx, query, attemptID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &status, nil
}

func (r *attemptRepository) ListByUser(ctx context.Context, userID string) ([]models.AttemptedQuiz, error) {
	query := `
		SELECT
			qa.attempt_id, q.quiz_id, q.quiz_name, q.quiz_code,
			qa.score, qa.total_questions,
			ROUND(qa.score * 100.0 / NULLIF(qa.total_questions, 0), 2)::float8 AS percentage,
			qa.attempt_date,
			(
				SELECT rr.status FROM retest_requests rr
				WHERE rr.attempt_id = qa.attempt_id
				ORDER BY rr.request_date DESC
				LIMIT 1
			) AS retest_status
		FROM quiz_attempts qa
		JOIN quizzes q ON q.quiz_id = qa.quiz_id
		WHERE qa.user_id = $1
		ORDER BY qa.attempt_date DESC
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]models.AttemptedQuiz, 0)
	for rows.Next() {
		var (
			a          models.AttemptedQuiz
			percentage sql.NullFloat64
			status     sql.NullString
		)
		err := rows.Scan(
			&a.AttemptID,
			&a.QuizID,
			&a.QuizName,
			&a.QuizCode,
			&a.Score,
			&a.TotalQuestions,
			&percentage,
			&a.AttemptDate,
			&status,
		)
		if err != nil {
			return nil, err
		}
		a.Percentage = percentage.Float64
		if status.Valid {
			a.RetestStatus = &status.String
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

func (r *attemptRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM quiz_attempts WHERE attempt_id = $1`

	res, err := r.conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return expectAffected(res)
}
