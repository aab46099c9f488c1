package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUsername(ctx context.Context, kind models.AccountKind, username string) (*models.Account, error)
	ListByKind(ctx context.Context, kind models.AccountKind) ([]models.AccountView, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, account *models.Account) error
}

type accountRepository struct {
	*PostgresRepository
}

func NewAccountRepository(db *sql.DB, logger zerolog.Logger) AccountRepository {
	return &accountRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const accountColumns = `id, username, email, password_hash, kind, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Kind,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	return account, err
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, username, email, password_hash, kind, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Kind,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrUniqueViolation
	}

	return err
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *accountRepository) GetByUsername(ctx context.Context, kind models.AccountKind, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE kind = $1 AND username = $2`

	account, err := scanAccount(r.conn(ctx).QueryRowContext(ctx, query, kind, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *accountRepository) ListByKind(ctx context.Context, kind models.AccountKind) ([]models.AccountView, error) {
	query := `
		SELECT id, username, email, kind
		FROM accounts
		WHERE kind = $1
		ORDER BY username
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]models.AccountView, 0)
	for rows.Next() {
		var a models.AccountView
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.Kind); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE accounts SET password_hash = $1, updated_at = NOW() WHERE id = $2`

	res, err := r.conn(ctx).ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}

	return expectAffected(res)
}

func (r *accountRepository) UpdateProfile(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET username = $1, email = $2, updated_at = $3
		WHERE id = $4
	`

	res, err := r.conn(ctx).ExecContext(ctx, query,
		account.Username,
		account.Email,
		account.UpdatedAt,
		account.ID,
	)
	if isUniqueViolation(err) {
		return ErrUniqueViolation
	}
	if err != nil {
		return err
	}

	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
