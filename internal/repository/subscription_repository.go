package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
)

type SubscriptionRepository interface {
	// Subscribe идемпотентна: повторная подписка ничего не меняет.
	Subscribe(ctx context.Context, studentID, teacherID string) (bool, error)
	Unsubscribe(ctx context.Context, studentID, teacherID string) (bool, error)
	ListTeachers(ctx context.Context, studentID string) ([]models.AccountView, error)
	UpcomingQuizzes(ctx context.Context, studentID string) ([]models.UpcomingQuiz, error)
}

type subscriptionRepository struct {
	*PostgresRepository
}

func NewSubscriptionRepository(db *sql.DB, logger zerolog.Logger) SubscriptionRepository {
	return &subscriptionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *subscriptionRepository) Subscribe(ctx context.Context, studentID, teacherID string) (bool, error) {
	query := `
		INSERT INTO subscriptions (student_id, teacher_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (student_id, teacher_id) DO NOTHING
	`

	res, err := r.conn(ctx).ExecContext(ctx, query, studentID, teacherID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *subscriptionRepository) Unsubscribe(ctx context.Context, studentID, teacherID string) (bool, error) {
	query := `DELETE FROM subscriptions WHERE student_id = $1 AND teacher_id = $2`

	res, err := r.conn(ctx).ExecContext(ctx, query, studentID, teacherID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *subscriptionRepository) ListTeachers(ctx context.Context, studentID string) ([]models.AccountView, error) {
	query := `
		SELECT a.id, a.username, a.email, a.kind
		FROM subscriptions s
		JOIN accounts a ON a.id = s.teacher_id
		WHERE s.student_id = $1
		ORDER BY a.username
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers := make([]models.AccountView, 0)
	for rows.Next() {
		var t models.AccountView
		if err := rows.Scan(&t.ID, &t.Username, &t.Email, &t.Kind); err != nil {
			return nil, err
		}
		teachers = append(teachers, t)
	}

	return teachers, rows.Err()
}

func (r *subscriptionRepository) UpcomingQuizzes(ctx context.Context, studentID string) ([]models.UpcomingQuiz, error) {
	query := `
		SELECT q.quiz_id, q.quiz_name, q.quiz_code, a.id, a.username, q.due_date
		FROM subscriptions s
		JOIN quizzes q ON q.created_by = s.teacher_id
		JOIN accounts a ON a.id = q.created_by
		WHERE s.student_id = $1
		  AND q.due_date > NOW()
		  AND NOT EXISTS (
			SELECT 1 FROM quiz_attempts qa
			WHERE qa.quiz_id = q.quiz_id AND qa.user_id = s.student_id
		  )
		ORDER BY q.due_date ASC
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := make([]models.UpcomingQuiz, 0)
	for rows.Next() {
		var q models.UpcomingQuiz
		if err := rows.Scan(&q.QuizID, &q.QuizName, &q.QuizCode, &q.TeacherID, &q.TeacherName, &q.DueDate); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}

	return quizzes, rows.Err()
}
