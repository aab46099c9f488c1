package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
)

type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	GetByCode(ctx context.Context, code string) (*models.Quiz, error)
	// GetByCodeForShare блокирует квиз от изменения до конца транзакции.
	GetByCodeForShare(ctx context.Context, code string) (*models.Quiz, error)
	ListByCreator(ctx context.Context, teacherID string) ([]models.QuizSummary, error)
}

type quizRepository struct {
	*PostgresRepository
}

func NewQuizRepository(db *sql.DB, logger zerolog.Logger) QuizRepository {
	return &quizRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const quizColumns = `quiz_id, quiz_name, quiz_code, created_by, questions, due_date, created_at, updated_at`

func scanQuiz(row interface{ Scan(...interface{}) error }) (*models.Quiz, error) {
	quiz := &models.Quiz{}
	var dueDate sql.NullTime
	err := row.Scan(
		&quiz.ID,
		&quiz.Name,
		&quiz.Code,
		&quiz.CreatedBy,
		&quiz.Questions,
		&dueDate,
		&quiz.CreatedAt,
		&quiz.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		quiz.DueDate = &dueDate.Time
	}
	return quiz, nil
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	query := `
		INSERT INTO quizzes (quiz_id, quiz_name, quiz_code, created_by, questions, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)
	`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		quiz.ID,
		quiz.Name,
		quiz.Code,
		quiz.CreatedBy,
		quiz.Questions,
		quiz.DueDate,
		quiz.CreatedAt,
		quiz.UpdatedAt,
	)
	if isUniqueViolation(err) {
		r.logger.Debug().Str("constraint", constraintName(err)).Str("quiz_code", quiz.Code).Msg("Quiz insert collided")
		return ErrUniqueViolation
	}

	return err
}

func (r *quizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	query := `
		UPDATE quizzes
		SET quiz_name = $1, due_date = $2, questions = $3::jsonb, updated_at = $4
		WHERE quiz_id = $5
	`

	res, err := r.conn(ctx).ExecContext(ctx, query,
		quiz.Name,
		quiz.DueDate,
		quiz.Questions,
		quiz.UpdatedAt,
		quiz.ID,
	)
	if err != nil {
		return err
	}

	return expectAffected(res)
}

func (r *quizRepository) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE quiz_id = $1`
	return r.getOne(ctx, query, id)
}

func (r *quizRepository) GetByCode(ctx context.Context, code string) (*models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE quiz_code = $1`
	return r.getOne(ctx, query, code)
}

func (r *quizRepository) GetByCodeForShare(ctx context.Context, code string) (*models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE quiz_code = $1 FOR SHARE`
	return r.getOne(ctx, query, code)
}

func (r *quizRepository) getOne(ctx context.Context, query string, arg string) (*models.Quiz, error) {
	quiz, err := scanQuiz(r.conn(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

func (r *quizRepository) ListByCreator(ctx context.Context, teacherID string) ([]models.QuizSummary, error) {
	query := `
		SELECT
			q.quiz_id, q.quiz_name, q.quiz_code, q.created_by, a.username,
			jsonb_array_length(q.questions -> 'questions') AS question_count,
			q.due_date, q.created_at
		FROM quizzes q
		JOIN accounts a ON a.id = q.created_by
		WHERE q.created_by = $1
		ORDER BY q.created_at DESC
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := make([]models.QuizSummary, 0)
	for rows.Next() {
		var (
			s       models.QuizSummary
			dueDate sql.NullTime
		)
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Code,
			&s.CreatedBy,
			&s.TeacherName,
			&s.QuestionCount,
			&dueDate,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if dueDate.Valid {
			s.DueDate = &dueDate.Time
		}
		quizzes = append(quizzes, s)
	}

	return quizzes, rows.Err()
}
