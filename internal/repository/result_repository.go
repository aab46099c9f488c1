package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
)

// ResultRepository обслуживает агрегирующие запросы только на чтение.
type ResultRepository interface {
	Leaderboard(ctx context.Context, quizID string) ([]models.LeaderboardEntry, error)
	AttemptsForQuiz(ctx context.Context, quizID string) ([]models.QuizAttemptRow, error)
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
}

type resultRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewResultRepository(db *sql.DB, logger zerolog.Logger) ResultRepository {
	return &resultRepository{
		db:     sqlx.NewDb(db, "postgres"),
		logger: logger,
	}
}

func (r *resultRepository) Leaderboard(ctx context.Context, quizID string) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT student_id, student_name, score, rank, attempt_date
		FROM (
			SELECT
				qa.user_id AS student_id,
				a.username AS student_name,
				ROUND(qa.score * 100.0 / qa.total_questions)::int AS score,
				DENSE_RANK() OVER (ORDER BY qa.score::numeric / qa.total_questions DESC) AS rank,
				qa.attempt_date
			FROM quiz_attempts qa
			JOIN accounts a ON a.id = qa.user_id
			WHERE qa.quiz_id = $1 AND qa.total_questions > 0
		) ranked
		ORDER BY rank ASC, attempt_date ASC
	`

	entries := make([]models.LeaderboardEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, quizID); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *resultRepository) AttemptsForQuiz(ctx context.Context, quizID string) ([]models.QuizAttemptRow, error) {
	query := `
		SELECT
			qa.attempt_id,
			qa.user_id AS student_id,
			a.username AS student_name,
			qa.score,
			qa.total_questions,
			COALESCE(ROUND(qa.score * 100.0 / NULLIF(qa.total_questions, 0), 2), 0)::float8 AS percentage,
			qa.attempt_date,
			(
				SELECT rr.status FROM retest_requests rr
				WHERE rr.attempt_id = qa.attempt_id
				ORDER BY rr.request_date DESC
				LIMIT 1
			) AS retest_status
		FROM quiz_attempts qa
		JOIN accounts a ON a.id = qa.user_id
		WHERE qa.quiz_id = $1
		ORDER BY qa.attempt_date DESC
	`

	rows := make([]models.QuizAttemptRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, quizID); err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *resultRepository) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_attempts,
			COALESCE(ROUND(AVG(score * 100.0 / NULLIF(total_questions, 0)), 2), 0)::float8 AS average_score,
			COUNT(DISTINCT quiz_id) AS completed_quizzes
		FROM quiz_attempts
		WHERE user_id = $1
	`

	stats := &models.UserStats{}
	if err := r.db.GetContext(ctx, stats, query, userID); err != nil {
		return nil, err
	}

	return stats, nil
}
