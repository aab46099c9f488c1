package models

const (
	EventQuizCreated      = "quiz.created"
	EventAttemptSubmitted = "attempt.submitted"
	EventRetestRequested  = "retest.requested"
	EventRetestResolved   = "retest.resolved"
)

// QuizEvent is published to the events exchange after a state change commits.
type QuizEvent struct {
	Type           string `json:"type"`
	QuizID         string `json:"quiz_id"`
	QuizCode       string `json:"quiz_code,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	AttemptID      string `json:"attempt_id,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
	Status         string `json:"status,omitempty"`
	Score          int    `json:"score,omitempty"`
	TotalQuestions int    `json:"total_questions,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}
