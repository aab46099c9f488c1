package httpd

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/RubachokBoss/quizspark/internal/auth"
	"github.com/RubachokBoss/quizspark/internal/models"
)

type MockAccountService struct{ mock.Mock }

func (m *MockAccountService) Register(ctx context.Context, req *models.SignupRequest) (*models.AccountView, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountView), args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *MockAccountService) ChangePassword(ctx context.Context, accountID string, req *models.ChangePasswordRequest) error {
	return m.Called(ctx, accountID, req).Error(0)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, accountID string, req *models.UpdateProfileRequest) (*models.AccountView, error) {
	args := m.Called(ctx, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountView), args.Error(1)
}

func (m *MockAccountService) ListTeachers(ctx context.Context) ([]models.AccountView, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.AccountView), args.Error(1)
}

type MockQuizService struct{ mock.Mock }

func (m *MockQuizService) CreateQuiz(ctx context.Context, teacherID string, req *models.CreateQuizRequest) (*models.CreateQuizResponse, error) {
	args := m.Called(ctx, teacherID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreateQuizResponse), args.Error(1)
}

func (m *MockQuizService) UpdateQuiz(ctx context.Context, teacherID, quizID string, req *models.UpdateQuizRequest) (*models.Quiz, error) {
	args := m.Called(ctx, teacherID, quizID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizService) GetQuizByCode(ctx context.Context, code string) (*models.QuizView, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizView), args.Error(1)
}

func (m *MockQuizService) GetQuizzesCreatedBy(ctx context.Context, teacherID string) ([]models.QuizSummary, error) {
	args := m.Called(ctx, teacherID)
	return args.Get(0).([]models.QuizSummary), args.Error(1)
}

type MockAttemptService struct{ mock.Mock }

func (m *MockAttemptService) HasAttempted(ctx context.Context, viewer *auth.Principal, code, studentID string) (*models.AttemptStatus, error) {
	args := m.Called(ctx, viewer, code, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AttemptStatus), args.Error(1)
}

func (m *MockAttemptService) Submit(ctx context.Context, studentID string, req *models.SubmitQuizRequest) (*models.SubmitResult, error) {
	args := m.Called(ctx, studentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubmitResult), args.Error(1)
}

func (m *MockAttemptService) GetResult(ctx context.Context, viewer *auth.Principal, code, studentID string) (*models.QuizResult, error) {
	args := m.Called(ctx, viewer, code, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizResult), args.Error(1)
}

func (m *MockAttemptService) AttemptedQuizzes(ctx context.Context, studentID string) ([]models.AttemptedQuiz, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]models.AttemptedQuiz), args.Error(1)
}

type MockRetestService struct{ mock.Mock }

func (m *MockRetestService) RequestRetest(ctx context.Context, studentID string, req *models.CreateRetestRequest) (*models.RetestRequest, error) {
	args := m.Called(ctx, studentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RetestRequest), args.Error(1)
}

func (m *MockRetestService) ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.RetestRequestDetails, error) {
	args := m.Called(ctx, teacherID)
	return args.Get(0).([]models.RetestRequestDetails), args.Error(1)
}

func (m *MockRetestService) ListForStudent(ctx context.Context, studentID string) ([]models.RetestRequestDetails, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]models.RetestRequestDetails), args.Error(1)
}

func (m *MockRetestService) ResolveRetest(ctx context.Context, teacherID, requestID string, req *models.ResolveRetestRequest) (*models.RetestRequest, error) {
	args := m.Called(ctx, teacherID, requestID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RetestRequest), args.Error(1)
}

type MockResultService struct{ mock.Mock }

func (m *MockResultService) LeaderboardFor(ctx context.Context, code string) (*models.Leaderboard, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Leaderboard), args.Error(1)
}

func (m *MockResultService) AttemptsForQuiz(ctx context.Context, teacherID, code string) ([]models.QuizAttemptRow, error) {
	args := m.Called(ctx, teacherID, code)
	return args.Get(0).([]models.QuizAttemptRow), args.Error(1)
}

func (m *MockResultService) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserStats), args.Error(1)
}

func (m *MockResultService) ExportResults(ctx context.Context, teacherID, code string) (*models.ResultsExport, error) {
	args := m.Called(ctx, teacherID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ResultsExport), args.Error(1)
}

type MockSubscriptionService struct{ mock.Mock }

func (m *MockSubscriptionService) Subscribe(ctx context.Context, studentID, teacherID string) error {
	return m.Called(ctx, studentID, teacherID).Error(0)
}

func (m *MockSubscriptionService) Unsubscribe(ctx context.Context, studentID, teacherID string) error {
	return m.Called(ctx, studentID, teacherID).Error(0)
}

func (m *MockSubscriptionService) ListSubscriptions(ctx context.Context, studentID string) ([]models.AccountView, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]models.AccountView), args.Error(1)
}

func (m *MockSubscriptionService) UpcomingQuizzesFor(ctx context.Context, studentID string) ([]models.UpcomingQuiz, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]models.UpcomingQuiz), args.Error(1)
}

// stubAuthenticator сопоставляет токены заранее заданным Principal.
type stubAuthenticator struct {
	principals map[string]*auth.Principal
	ended      []string
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, raw string) (*auth.Principal, error) {
	p, ok := s.principals[raw]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return p, nil
}

func (s *stubAuthenticator) EndSession(ctx context.Context, p *auth.Principal) error {
	s.ended = append(s.ended, p.TokenID)
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }
