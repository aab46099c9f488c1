package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/auth"
	"github.com/RubachokBoss/quizspark/internal/models"
	"github.com/RubachokBoss/quizspark/internal/repository"
)

type AccountService interface {
	Register(ctx context.Context, req *models.SignupRequest) (*models.AccountView, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	ChangePassword(ctx context.Context, accountID string, req *models.ChangePasswordRequest) error
	UpdateProfile(ctx context.Context, accountID string, req *models.UpdateProfileRequest) (*models.AccountView, error)
	ListTeachers(ctx context.Context) ([]models.AccountView, error)
}

// SessionManager выдает и отзывает сессии; реализуется auth.Authenticator.
type SessionManager interface {
	StartSession(ctx context.Context, account models.AccountView) (*auth.Session, error)
	EndAllSessions(ctx context.Context, accountID string) error
}

type accountService struct {
	accountRepo repository.AccountRepository
	hasher      auth.PasswordHasher
	sessions    SessionManager
	dummyHash   string
	logger      zerolog.Logger
}

func NewAccountService(
	accountRepo repository.AccountRepository,
	hasher auth.PasswordHasher,
	sessions SessionManager,
	logger zerolog.Logger,
) (AccountService, error) {
	// Хэш-заглушка выравнивает время ответа для несуществующих логинов.
	dummyHash, err := hasher.Hash(uuid.New().String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &accountService{
		accountRepo: accountRepo,
		hasher:      hasher,
		sessions:    sessions,
		dummyHash:   dummyHash,
		logger:      logger,
	}, nil
}

func (s *accountService) Register(ctx context.Context, req *models.SignupRequest) (*models.AccountView, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("unknown account kind %q", req.Kind)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	account := &models.Account{
		ID:           uuid.New().String(),
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Kind:         req.Kind,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info().
		Str("account_id", account.ID).
		Str("kind", string(account.Kind)).
		Msg("Account registered")

	view := account.View()
	return &view, nil
}

func (s *accountService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	account, err := s.authenticate(ctx, req.Kind, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return nil, err
	}

	view := account.View()
	session, err := s.sessions.StartSession(ctx, view)
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	s.logger.Info().
		Str("account_id", account.ID).
		Str("kind", string(account.Kind)).
		Msg("Account logged in")

	return &models.LoginResponse{
		Success:   true,
		User:      view,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *accountService) authenticate(ctx context.Context, kind models.AccountKind, username, password string) (*models.Account, error) {
	account, err := s.accountRepo.GetByUsername(ctx, kind, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if account == nil {
		_, _ = s.hasher.Verify(password, s.dummyHash)
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

func (s *accountService) ChangePassword(ctx context.Context, accountID string, req *models.ChangePasswordRequest) error {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}

	ok, err := s.hasher.Verify(req.CurrentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.UpdatePassword(ctx, accountID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Старые токены больше не должны работать.
	if err := s.sessions.EndAllSessions(ctx, accountID); err != nil {
		s.logger.Error().Err(err).Str("account_id", accountID).Msg("Failed to revoke sessions after password change")
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.logger.Info().Str("account_id", accountID).Msg("Password changed")
	return nil
}

func (s *accountService) UpdateProfile(ctx context.Context, accountID string, req *models.UpdateProfileRequest) (*models.AccountView, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	account.Username = strings.TrimSpace(req.Username)
	account.Email = strings.ToLower(strings.TrimSpace(req.Email))
	account.UpdatedAt = time.Now()

	if err := s.accountRepo.UpdateProfile(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrUniqueViolation):
			return nil, ErrDuplicateUsername
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	view := account.View()
	return &view, nil
}

func (s *accountService) ListTeachers(ctx context.Context) ([]models.AccountView, error) {
	teachers, err := s.accountRepo.ListByKind(ctx, models.KindTeacher)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	return teachers, nil
}
