package models

import "time"

type RetestStatus string

const (
	RetestPending  RetestStatus = "pending"
	RetestApproved RetestStatus = "approved"
	RetestDeclined RetestStatus = "declined"
)

type RetestRequest struct {
	ID          string       `json:"request_id" db:"request_id"`
	StudentID   string       `json:"student_id" db:"student_id"`
	QuizID      string       `json:"quiz_id" db:"quiz_id"`
	AttemptID   *string      `json:"attempt_id" db:"attempt_id"`
	RequestDate time.Time    `json:"request_date" db:"request_date"`
	Status      RetestStatus `json:"status" db:"status"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// RetestRequestDetails is a retest request joined with what a teacher
// needs to decide on it.
type RetestRequestDetails struct {
	RetestRequest
	StudentName    string `json:"student_name" db:"student_name"`
	QuizName       string `json:"quiz_name" db:"quiz_name"`
	QuizCode       string `json:"quiz_code" db:"quiz_code"`
	Score          *int   `json:"score,omitempty" db:"score"`
	TotalQuestions *int   `json:"total_questions,omitempty" db:"total_questions"`
}
