package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
)

type RetestRepository interface {
	// Create дает ErrUniqueViolation, если по попытке уже есть pending-запрос.
	Create(ctx context.Context, req *models.RetestRequest) error
	GetByID(ctx context.Context, id string) (*models.RetestRequest, error)
	// GetByIDForUpdate блокирует строку запроса до конца транзакции.
	GetByIDForUpdate(ctx context.Context, id string) (*models.RetestRequest, error)
	UpdateStatus(ctx context.Context, req *models.RetestRequest) error
	Delete(ctx context.Context, id string) error
	ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.RetestRequestDetails, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.RetestRequestDetails, error)
}

type retestRepository struct {
	*PostgresRepository
}

func NewRetestRepository(db *sql.DB, logger zerolog.Logger) RetestRepository {
	return &retestRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const retestColumns = `request_id, student_id, quiz_id, attempt_id, request_date, status, updated_at`

func scanRetest(row interface{ Scan(...interface{}) error }) (*models.RetestRequest, error) {
	req := &models.RetestRequest{}
	var attemptID sql.NullString
	err := row.Scan(
		&req.ID,
		&req.StudentID,
		&req.QuizID,
		&attemptID,
		&req.RequestDate,
		&req.Status,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if attemptID.Valid {
		req.AttemptID = &attemptID.String
	}
	return req, nil
}

func (r *retestRepository) Create(ctx context.Context, req *models.RetestRequest) error {
	query := `
		INSERT INTO retest_requests (request_id, student_id, quiz_id, attempt_id, request_date, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		req.ID,
		req.StudentID,
		req.QuizID,
		req.AttemptID,
		req.RequestDate,
		req.Status,
		req.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrUniqueViolation
	}

	return err
}

func (r *retestRepository) GetByID(ctx context.Context, id string) (*models.RetestRequest, error) {
	query := `SELECT ` + retestColumns + ` FROM retest_requests WHERE request_id = $1`
	return r.getOne(ctx, query, id)
}

func (r *retestRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.RetestRequest, error) {
	query := `SELECT ` + retestColumns + ` FROM retest_requests WHERE request_id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *retestRepository) getOne(ctx context.Context, query, id string) (*models.RetestRequest, error) {
	req, err := scanRetest(r.conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *retestRepository) UpdateStatus(ctx context.Context, req *models.RetestRequest) error {
	query := `UPDATE retest_requests SET status = $1, updated_at = $2 WHERE request_id = $3`

	res, err := r.conn(ctx).ExecContext(ctx, query, req.Status, req.UpdatedAt, req.ID)
	if err != nil {
		return err
	}

	return expectAffected(res)
}

func (r *retestRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM retest_requests WHERE request_id = $1`

	res, err := r.conn(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return expectAffected(res)
}

const retestDetailsQuery = `
	SELECT
		rr.request_id, rr.student_id, rr.quiz_id, rr.attempt_id, rr.request_date, rr.status, rr.updated_at,
		a.username, q.quiz_name, q.quiz_code, qa.score, qa.total_questions
	FROM retest_requests rr
	JOIN quizzes q ON q.quiz_id = rr.quiz_id
	JOIN accounts a ON a.id = rr.student_id
	LEFT JOIN quiz_attempts qa ON qa.attempt_id = rr.attempt_id
`

func (r *retestRepository) ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.RetestRequestDetails, error) {
	query := retestDetailsQuery + `
		WHERE q.created_by = $1 AND rr.status = 'pending'
		ORDER BY rr.request_date DESC
	`
	return r.listDetails(ctx, query, teacherID)
}

func (r *retestRepository) ListByStudent(ctx context.Context, studentID string) ([]models.RetestRequestDetails, error) {
	query := retestDetailsQuery + `
		WHERE rr.student_id = $1
		ORDER BY rr.request_date DESC
	`
	return r.listDetails(ctx, query, studentID)
}

func (r *retestRepository) listDetails(ctx context.Context, query, arg string) ([]models.RetestRequestDetails, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]models.RetestRequestDetails, 0)
	for rows.Next() {
		var (
			d         models.RetestRequestDetails
			attemptID sql.NullString
			score     sql.NullInt64
			total     sql.NullInt64
		)
		err := rows.Scan(
			&d.ID,
			&d.StudentID,
			&d.QuizID,
			&attemptID,
			&d.RequestDate,
			&d.Status,
			&d.UpdatedAt,
			&d.StudentName,
			&d.QuizName,
			&d.QuizCode,
			&score,
			&total,
		)
		if err != nil {
			return nil, err
		}
		if attemptID.Valid {
			d.AttemptID = &attemptID.String
		}
		if score.Valid {
			v := int(score.Int64)
			d.Score = &v
		}
		if total.Valid {
			v := int(total.Int64)
			d.TotalQuestions = &v
		}
		requests = append(requests, d)
	}

	return requests, rows.Err()
}
