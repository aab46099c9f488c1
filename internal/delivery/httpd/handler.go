package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/quizspark/internal/auth"
	"github.com/RubachokBoss/quizspark/internal/middleware"
	"github.com/RubachokBoss/quizspark/internal/models"
	"github.com/RubachokBoss/quizspark/internal/service"
)

const maxBodyBytes = 1 << 20

// Authenticator проверяет токены и завершает сессии; реализуется auth.Authenticator.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*auth.Principal, error)
	EndSession(ctx context.Context, p *auth.Principal) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Accounts      service.AccountService
	Quizzes       service.QuizService
	Attempts      service.AttemptService
	Subscriptions service.SubscriptionService
	Retests       service.RetestService
	Results       service.ResultService
}

type Handler struct {
	accountService      service.AccountService
	quizService         service.QuizService
	attemptService      service.AttemptService
	subscriptionService service.SubscriptionService
	retestService       service.RetestService
	resultService       service.ResultService
	authenticator       Authenticator
	dependencies        map[string]Pinger
	validate            *validator.Validate
	logger              zerolog.Logger
}

func NewHandler(
	services Services,
	authenticator Authenticator,
	dependencies map[string]Pinger,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		accountService:      services.Accounts,
		quizService:         services.Quizzes,
		attemptService:      services.Attempts,
		subscriptionService: services.Subscriptions,
		retestService:       services.Retests,
		resultService:       services.Results,
		authenticator:       authenticator,
		dependencies:        dependencies,
		validate:            validator.New(validator.WithRequiredStructEnabled()),
		logger:              logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	teacherOnly := middleware.RequireKind(models.KindTeacher)
	studentOnly := middleware.RequireKind(models.KindStudent)

	router.Get("/health", h.HealthCheck)
	router.Post("/signup", h.Signup)
	router.Post("/login", h.Login)

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(h.authenticator, h.logger))

		r.Post("/logout", h.Logout)
		r.Post("/change-password", h.ChangePassword)

		r.Route("/api", func(api chi.Router) {
			api.Put("/profile", h.UpdateProfile)
			api.Get("/teachers", h.ListTeachers)

			api.Route("/quizzes", func(q chi.Router) {
				q.With(teacherOnly).Post("/", h.CreateQuiz)
				// {quiz}: код квиза для GET и quiz_id для PUT.
				q.Get("/{quiz}", h.GetQuizByCode)
				q.With(teacherOnly).Put("/{quiz}", h.UpdateQuiz)
			})
			api.With(teacherOnly).Get("/my-quizzes", h.GetMyQuizzes)

			api.Get("/check-quiz-attempt/{code}", h.CheckQuizAttempt)
			api.Get("/check-quiz-attempt/{code}/{userId}", h.CheckQuizAttempt)
			api.With(studentOnly).Post("/submit-quiz", h.SubmitQuiz)
			api.Get("/quiz-result/{code}", h.GetQuizResult)
			api.Get("/quiz-result/{code}/{userId}", h.GetQuizResult)

			api.Route("/quiz-results/{code}", func(res chi.Router) {
				res.Get("/leaderboard", h.GetLeaderboard)
				res.With(teacherOnly).Get("/attempts", h.GetQuizAttempts)
				res.With(teacherOnly).Get("/export", h.ExportResults)
			})
			api.Get("/user-stats", h.GetUserStats)

			api.Group(func(s chi.Router) {
				s.Use(studentOnly)
				s.Post("/subscribe", h.Subscribe)
				s.Post("/unsubscribe", h.Unsubscribe)
				s.Get("/subscriptions", h.ListSubscriptions)
				s.Get("/upcoming-quizzes", h.GetUpcomingQuizzes)
				s.Get("/attempted-quizzes", h.GetAttemptedQuizzes)
			})

			api.Route("/retest-requests", func(rr chi.Router) {
				rr.With(studentOnly).Post("/", h.CreateRetestRequest)
				rr.Get("/", h.ListRetestRequests)
				rr.With(teacherOnly).Put("/{id}", h.ResolveRetestRequest)
			})
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.dependencies))
	for name, dep := range h.dependencies {
		if err := dep.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}

	writeJSON(w, status, map[string]interface{}{
		"status":    state,
		"service":   "quizspark",
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}

// principal всегда есть за middleware.Authenticate; отсутствие значит ошибку маршрутизации.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, err := auth.PrincipalFrom(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return p, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("Service error")
	}
	writeError(w, status, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrTeacherNotFound),
		errors.Is(err, service.ErrQuizNotFound),
		errors.Is(err, service.ErrAttemptNotFound),
		errors.Is(err, service.ErrRetestNotFound),
		errors.Is(err, service.ErrNoAttempts):
		return http.StatusNotFound, rootMessage(err)
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, rootMessage(err)
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, rootMessage(err)
	case errors.Is(err, service.ErrInvalidQuiz),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrMissingQuizID):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrDuplicateUsername),
		errors.Is(err, service.ErrQuizCodeTaken),
		errors.Is(err, service.ErrAlreadyAttempted),
		errors.Is(err, service.ErrRetestPending),
		errors.Is(err, service.ErrRetestAlreadyResolved):
		return http.StatusConflict, rootMessage(err)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// rootMessage отдает клиенту только текст сентинела, без обернутых деталей.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
