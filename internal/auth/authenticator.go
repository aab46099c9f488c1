package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RubachokBoss/quizspark/internal/models"
)

// Principal is the caller identity derived from a validated session token.
type Principal struct {
	AccountID string
	Username  string
	Kind      models.AccountKind
	TokenID   string
	ExpiresAt time.Time
}

func (p *Principal) IsTeacher() bool { return p.Kind == models.KindTeacher }
func (p *Principal) IsStudent() bool { return p.Kind == models.KindStudent }

type Session struct {
	Token     string
	ExpiresAt time.Time
}

type Authenticator struct {
	tokens   *TokenManager
	sessions SessionStore
}

func NewAuthenticator(tokens *TokenManager, sessions SessionStore) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		sessions: sessions,
	}
}

func (a *Authenticator) StartSession(ctx context.Context, account models.AccountView) (*Session, error) {
	token, claims, err := a.tokens.Issue(account)
	if err != nil {
		return nil, err
	}

	if err := a.sessions.Register(ctx, claims.ID, account.ID, a.tokens.TTL()); err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}

	active, err := a.sessions.Active(ctx, claims.ID, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to verify session: %w", err)
	}
	if !active {
		return nil, ErrInvalidToken
	}

	return &Principal{
		AccountID: claims.Subject,
		Username:  claims.Username,
		Kind:      claims.Kind,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (a *Authenticator) EndSession(ctx context.Context, p *Principal) error {
	return a.sessions.Revoke(ctx, p.TokenID, p.AccountID)
}

// EndAllSessions отзывает все токены аккаунта, например после смены пароля.
func (a *Authenticator) EndAllSessions(ctx context.Context, accountID string) error {
	return a.sessions.RevokeAll(ctx, accountID)
}

func (a *Authenticator) Ping(ctx context.Context) error {
	return a.sessions.Ping(ctx)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

var ErrNoPrincipal = errors.New("no authenticated principal in context")

func PrincipalFrom(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	if !ok || p == nil {
		return nil, ErrNoPrincipal
	}
	return p, nil
}
