package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/RubachokBoss/quizspark/internal/auth"
	"github.com/RubachokBoss/quizspark/internal/models"
	"github.com/RubachokBoss/quizspark/internal/repository"
)

var testHasher = auth.NewArgon2Hasher(auth.PasswordParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
})

// memStore держит состояние всех фейковых репозиториев, чтобы сервисы
// видели изменения друг друга как в общей базе.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	quizzes  map[string]*models.Quiz
	attempts map[string]*models.Attempt
	retests  map[string]*models.RetestRequest
	subs     map[[2]string]time.Time
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*models.Account{},
		quizzes:  map[string]*models.Quiz{},
		attempts: map[string]*models.Attempt{},
		retests:  map[string]*models.RetestRequest{},
		subs:     map[[2]string]time.Time{},
	}
}

func (s *memStore) addAccount(id, username, password string, kind models.AccountKind) *models.Account {
	hash, err := testHasher.Hash(password)
	if err != nil {
		panic(err)
	}
	account := &models.Account{ID: id, Username: username, Email: username + "@example.com", PasswordHash: hash, Kind: kind}
	s.accounts[id] = account
	return account
}

func (s *memStore) addQuiz(id, code, teacherID string, questions []models.Question) *models.Quiz {
	quiz := &models.Quiz{ID: id, Name: "Quiz " + code, Code: code, CreatedBy: teacherID, Questions: questions, CreatedAt: time.Now()}
	s.quizzes[id] = quiz
	return quiz
}

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// accounts

type fakeAccountRepo struct{ *memStore }

func (r fakeAccountRepo) Create(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Kind == account.Kind && a.Username == account.Username {
			return repository.ErrUniqueViolation
		}
	}
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r fakeAccountRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r fakeAccountRepo) GetByUsername(ctx context.Context, kind models.AccountKind, username string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Kind == kind && a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeAccountRepo) ListByKind(ctx context.Context, kind models.AccountKind) ([]models.AccountView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := make([]models.AccountView, 0)
	for _, a := range r.accounts {
		if a.Kind == kind {
			views = append(views, a.View())
		}
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Username < views[j].Username })
	return views, nil
}

func (r fakeAccountRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.PasswordHash = passwordHash
	return nil
}

func (r fakeAccountRepo) UpdateProfile(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[account.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range r.accounts {
		if other.ID != a.ID && other.Kind == a.Kind && other.Username == account.Username {
			return repository.ErrUniqueViolation
		}
	}
	a.Username = account.Username
	a.Email = account.Email
	return nil
}

// quizzes

type fakeQuizRepo struct{ *memStore }

func (r fakeQuizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.quizzes {
		if q.Code == quiz.Code {
			return repository.ErrUniqueViolation
		}
	}
	cp := *quiz
	r.quizzes[quiz.ID] = &cp
	return nil
}

func (r fakeQuizRepo) Update(ctx context.Context, quiz *models.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quizzes[quiz.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *quiz
	r.quizzes[quiz.ID] = &cp
	return nil
}

func (r fakeQuizRepo) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quizzes[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (r fakeQuizRepo) GetByCode(ctx context.Context, code string) (*models.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.quizzes {
		if q.Code == code {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeQuizRepo) GetByCodeForShare(ctx context.Context, code string) (*models.Quiz, error) {
	return r.GetByCode(ctx, code)
}

func (r fakeQuizRepo) ListByCreator(ctx context.Context, teacherID string) ([]models.QuizSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.QuizSummary, 0)
	for _, q := range r.quizzes {
		if q.CreatedBy == teacherID {
			out = append(out, models.QuizSummary{ID: q.ID, Name: q.Name, Code: q.Code, CreatedBy: q.CreatedBy, QuestionCount: len(q.Questions), CreatedAt: q.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// attempts

type fakeAttemptRepo struct{ *memStore }

func (r fakeAttemptRepo) Create(ctx context.Context, attempt *models.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.QuizID == attempt.QuizID && a.UserID == attempt.UserID {
			return repository.ErrUniqueViolation
		}
	}
	cp := *attempt
	r.attempts[attempt.ID] = &cp
	return nil
}

func (r fakeAttemptRepo) GetByID(ctx context.Context, id string) (*models.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r fakeAttemptRepo) GetByQuizAndUser(ctx context.Context, quizID, userID string) (*models.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r fakeAttemptRepo) LatestRetestStatus(ctx context.Context, attemptID string) (*models.RetestStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.RetestRequest
	for _, rr := range r.retests {
		if rr.AttemptID != nil && *rr.AttemptID == attemptID {
			if latest == nil || rr.RequestDate.After(latest.RequestDate) {
				latest = rr
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	status := latest.Status
	return &status, nil
}

func (r fakeAttemptRepo) ListByUser(ctx context.Context, userID string) ([]models.AttemptedQuiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AttemptedQuiz, 0)
	for _, a := range r.attempts {
		if a.UserID != userID {
			continue
		}
		q := r.quizzes[a.QuizID]
		out = append(out, models.AttemptedQuiz{AttemptID: a.ID, QuizID: a.QuizID, QuizName: q.Name, QuizCode: q.Code, Score: a.Score, TotalQuestions: a.TotalQuestions, AttemptDate: a.AttemptDate})
	}
	return out, nil
}

func (r fakeAttemptRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attempts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.attempts, id)
	for _, rr := range r.retests {
		if rr.AttemptID != nil && *rr.AttemptID == id {
			rr.AttemptID = nil
		}
	}
	return nil
}

// retests

type fakeRetestRepo struct{ *memStore }

func (r fakeRetestRepo) Create(ctx context.Context, req *models.RetestRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rr := range r.retests {
		if rr.Status == models.RetestPending && rr.AttemptID != nil && req.AttemptID != nil && *rr.AttemptID == *req.AttemptID {
			return repository.ErrUniqueViolation
		}
	}
	cp := *req
	r.retests[req.ID] = &cp
	return nil
}

func (r fakeRetestRepo) GetByID(ctx context.Context, id string) (*models.RetestRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rr, ok := r.retests[id]
	if !ok {
		return nil, nil
	}
	cp := *rr
	return &cp, nil
}

func (r fakeRetestRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.RetestRequest, error) {
	return r.GetByID(ctx, id)
}

func (r fakeRetestRepo) UpdateStatus(ctx context.Context, req *models.RetestRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rr, ok := r.retests[req.ID]
	if !ok {
		return repository.ErrNotFound
	}
	rr.Status = req.Status
	rr.UpdatedAt = req.UpdatedAt
	return nil
}

func (r fakeRetestRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.retests[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.retests, id)
	return nil
}

func (r fakeRetestRepo) ListPendingForTeacher(ctx context.Context, teacherID string) ([]models.RetestRequestDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.RetestRequestDetails, 0)
	for _, rr := range r.retests {
		if q := r.quizzes[rr.QuizID]; q != nil && q.CreatedBy == teacherID && rr.Status == models.RetestPending {
			out = append(out, models.RetestRequestDetails{RetestRequest: *rr, QuizName: q.Name, QuizCode: q.Code})
		}
	}
	return out, nil
}

func (r fakeRetestRepo) ListByStudent(ctx context.Context, studentID string) ([]models.RetestRequestDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.RetestRequestDetails, 0)
	for _, rr := range r.retests {
		if rr.StudentID == studentID {
			out = append(out, models.RetestRequestDetails{RetestRequest: *rr})
		}
	}
	return out, nil
}

// subscriptions

type fakeSubscriptionRepo struct{ *memStore }

func (r fakeSubscriptionRepo) Subscribe(ctx context.Context, studentID, teacherID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{studentID, teacherID}
	if _, ok := r.subs[key]; ok {
		return false, nil
	}
	r.subs[key] = time.Now()
	return true, nil
}

func (r fakeSubscriptionRepo) Unsubscribe(ctx context.Context, studentID, teacherID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{studentID, teacherID}
	if _, ok := r.subs[key]; !ok {
		return false, nil
	}
	delete(r.subs, key)
	return true, nil
}

func (r fakeSubscriptionRepo) ListTeachers(ctx context.Context, studentID string) ([]models.AccountView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AccountView, 0)
	for key := range r.subs {
		if key[0] == studentID {
			out = append(out, r.accounts[key[1]].View())
		}
	}
	return out, nil
}

func (r fakeSubscriptionRepo) UpcomingQuizzes(ctx context.Context, studentID string) ([]models.UpcomingQuiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	out := make([]models.UpcomingQuiz, 0)
	for _, q := range r.quizzes {
		if _, ok := r.subs[[2]string{studentID, q.CreatedBy}]; !ok {
			continue
		}
		if q.DueDate == nil || !q.DueDate.After(now) {
			continue
		}
		attempted := false
		for _, a := range r.attempts {
			if a.QuizID == q.ID && a.UserID == studentID {
				attempted = true
			}
		}
		if attempted {
			continue
		}
		out = append(out, models.UpcomingQuiz{QuizID: q.ID, QuizName: q.Name, QuizCode: q.Code, TeacherID: q.CreatedBy, DueDate: *q.DueDate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

// direct cache: читает сразу из репозитория.
type passthroughCache struct {
	repo        repository.QuizRepository
	invalidated []string
}

func (c *passthroughCache) GetByCode(ctx context.Context, code string) (*models.Quiz, error) {
	return c.repo.GetByCode(ctx, code)
}

func (c *passthroughCache) Invalidate(ctx context.Context, code string) error {
	c.invalidated = append(c.invalidated, code)
	return nil
}

// mocks

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event *models.QuizEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return nil
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e *models.QuizEvent) bool { return e.Type == eventType })
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) StartSession(ctx context.Context, account models.AccountView) (*auth.Session, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Session), args.Error(1)
}

func (m *MockSessions) EndAllSessions(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

type MockResultRepo struct {
	mock.Mock
}

func (m *MockResultRepo) Leaderboard(ctx context.Context, quizID string) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}

func (m *MockResultRepo) AttemptsForQuiz(ctx context.Context, quizID string) ([]models.QuizAttemptRow, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QuizAttemptRow), args.Error(1)
}

func (m *MockResultRepo) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserStats), args.Error(1)
}

type MockStorage struct {
	mock.Mock
	uploaded map[string][]byte
}

func (m *MockStorage) PutObject(ctx context.Context, name string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if m.uploaded == nil {
		m.uploaded = map[string][]byte{}
	}
	m.uploaded[name] = data
	args := m.Called(ctx, name, size, contentType)
	return args.Error(0)
}

func (m *MockStorage) PresignedGetURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, name, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) ObjectExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func twoQuestionQuiz() []models.Question {
	return []models.Question{
		{QuestionText: "First", Options: []models.Option{{Text: "A", IsCorrect: true}, {Text: "B"}}},
		{QuestionText: "Second", Options: []models.Option{{Text: "C"}, {Text: "D", IsCorrect: true}}},
	}
}

func studentPrincipal(id string) *auth.Principal {
	return &auth.Principal{AccountID: id, Username: id, Kind: models.KindStudent}
}

func teacherPrincipal(id string) *auth.Principal {
	return &auth.Principal{AccountID: id, Username: id, Kind: models.KindTeacher}
}
