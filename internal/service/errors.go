package service

import "errors"

// Типизированные ошибки для маппинга на HTTP-коды в delivery-слое.
var (
	// Не найдено (404).
	ErrAccountNotFound = errors.New("account not found")
	ErrTeacherNotFound = errors.New("teacher not found")
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrRetestNotFound  = errors.New("retest request not found")
	ErrNoAttempts      = errors.New("no attempts for this quiz yet")

	// Аутентификация (401) и права (403).
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("not allowed to access this resource")

	// Некорректный запрос (400).
	ErrInvalidQuiz   = errors.New("invalid quiz")
	ErrInvalidStatus = errors.New("invalid retest status")
	ErrMissingQuizID = errors.New("quiz_id is required")

	// Конфликты состояния (409).
	ErrDuplicateUsername     = errors.New("username already taken")
	ErrQuizCodeTaken         = errors.New("quiz code already in use")
	ErrAlreadyAttempted      = errors.New("quiz already attempted")
	ErrRetestPending         = errors.New("a retest request for this attempt is already pending")
	ErrRetestAlreadyResolved = errors.New("retest request already resolved")
)
