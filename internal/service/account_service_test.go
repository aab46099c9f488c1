package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/quizspark/internal/auth"
	"github.com/RubachokBoss/quizspark/internal/models"
)

func newAccountTestService(t *testing.T) (AccountService, *memStore, *MockSessions) {
	t.Helper()
	store := newMemStore()
	sessions := new(MockSessions)

	svc, err := NewAccountService(fakeAccountRepo{store}, testHasher, sessions, nopLogger())
	require.NoError(t, err)
	return svc, store, sessions
}

func TestAccountService_Register(t *testing.T) {
	svc, store, _ := newAccountTestService(t)
	ctx := context.Background()

	view, err := svc.Register(ctx, &models.SignupRequest{
		Username: "  alice ",
		Email:    "Alice@Example.com",
		Password: "s3cret-pass",
		Kind:     models.KindStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "alice@example.com", view.Email)

	stored := store.accounts[view.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	ok, err := testHasher.Verify("s3cret-pass", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccountService_RegisterDuplicate(t *testing.T) {
	svc, _, _ := newAccountTestService(t)
	ctx := context.Background()

	req := &models.SignupRequest{Username: "bob", Email: "bob@example.com", Password: "password1", Kind: models.KindTeacher}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	// То же имя, но другой тип аккаунта, допустимо.
	req.Kind = models.KindStudent
	_, err = svc.Register(ctx, req)
	assert.NoError(t, err)
}

func TestAccountService_Login(t *testing.T) {
	svc, store, sessions := newAccountTestService(t)
	ctx := context.Background()
	store.addAccount("t-1", "teacher", "correct-pass", models.KindTeacher)

	expires := time.Now().Add(time.Hour)
	sessions.On("StartSession", mock.Anything, mock.MatchedBy(func(v models.AccountView) bool {
		return v.ID == "t-1"
	})).Return(&auth.Session{Token: "signed", ExpiresAt: expires}, nil)

	resp, err := svc.Login(ctx, &models.LoginRequest{Username: "teacher", Password: "correct-pass", Kind: models.KindTeacher})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "signed", resp.Token)
	assert.Equal(t, "t-1", resp.User.ID)
	assert.Equal(t, expires, resp.ExpiresAt)
	sessions.AssertExpectations(t)
}

func TestAccountService_LoginFailures(t *testing.T) {
	svc, store, sessions := newAccountTestService(t)
	ctx := context.Background()
	store.addAccount("t-1", "teacher", "correct-pass", models.KindTeacher)

	tests := []struct {
		name string
		req  models.LoginRequest
	}{
		{"wrong password", models.LoginRequest{Username: "teacher", Password: "nope-nope", Kind: models.KindTeacher}},
		{"unknown user", models.LoginRequest{Username: "ghost", Password: "correct-pass", Kind: models.KindTeacher}},
		{"wrong kind", models.LoginRequest{Username: "teacher", Password: "correct-pass", Kind: models.KindStudent}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, &tt.req)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
	sessions.AssertNotCalled(t, "StartSession", mock.Anything, mock.Anything)
}

func TestAccountService_ChangePassword(t *testing.T) {
	svc, store, sessions := newAccountTestService(t)
	ctx := context.Background()
	store.addAccount("s-1", "student", "old-password", models.KindStudent)

	sessions.On("EndAllSessions", mock.Anything, "s-1").Return(nil).Once()

	err := svc.ChangePassword(ctx, "s-1", &models.ChangePasswordRequest{CurrentPassword: "wrong-one", NewPassword: "new-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, "s-1", &models.ChangePasswordRequest{CurrentPassword: "old-password", NewPassword: "new-password"})
	require.NoError(t, err)

	ok, err := testHasher.Verify("new-password", store.accounts["s-1"].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
	sessions.AssertExpectations(t)

	err = svc.ChangePassword(ctx, "missing", &models.ChangePasswordRequest{CurrentPassword: "x", NewPassword: "new-password"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountService_ChangePasswordRevokeFailure(t *testing.T) {
	svc, store, sessions := newAccountTestService(t)
	store.addAccount("s-1", "student", "old-password", models.KindStudent)
	sessions.On("EndAllSessions", mock.Anything, "s-1").Return(errors.New("redis down"))

	err := svc.ChangePassword(context.Background(), "s-1", &models.ChangePasswordRequest{CurrentPassword: "old-password", NewPassword: "new-password"})
	assert.Error(t, err)
}

func TestAccountService_UpdateProfile(t *testing.T) {
	svc, store, _ := newAccountTestService(t)
	ctx := context.Background()
	store.addAccount("s-1", "first", "password1", models.KindStudent)
	store.addAccount("s-2", "second", "password1", models.KindStudent)

	view, err := svc.UpdateProfile(ctx, "s-1", &models.UpdateProfileRequest{Username: "renamed", Email: "NEW@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", view.Username)
	assert.Equal(t, "new@example.com", view.Email)

	_, err = svc.UpdateProfile(ctx, "s-1", &models.UpdateProfileRequest{Username: "second", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = svc.UpdateProfile(ctx, "nobody", &models.UpdateProfileRequest{Username: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestAccountService_ListTeachers(t *testing.T) {
	svc, store, _ := newAccountTestService(t)
	store.addAccount("t-1", "zoe", "password1", models.KindTeacher)
	store.addAccount("t-2", "adam", "password1", models.KindTeacher)
	store.addAccount("s-1", "sam", "password1", models.KindStudent)

	teachers, err := svc.ListTeachers(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "adam", teachers[0].Username)
}
