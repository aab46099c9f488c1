package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Answers maps a question index to the selected option indices.
type Answers map[int][]int

func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[int][]int(a))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (a *Answers) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*a = Answers{}
		return nil
	default:
		return fmt.Errorf("unsupported answers type %T", src)
	}

	decoded := map[int][]int{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to decode answers: %w", err)
	}
	*a = decoded
	return nil
}

type Attempt struct {
	ID             string    `json:"attempt_id" db:"attempt_id"`
	QuizID         string    `json:"quiz_id" db:"quiz_id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Score          int       `json:"score" db:"score"`
	TotalQuestions int       `json:"total_questions" db:"total_questions"`
	Answers        Answers   `json:"answers" db:"answers"`
	AttemptDate    time.Time `json:"attempt_date" db:"attempt_date"`
}

type QuestionResult struct {
	QuestionIndex   int    `json:"question_index"`
	QuestionText    string `json:"question_text"`
	IsCorrect       bool   `json:"is_correct"`
	SelectedOptions []int  `json:"selected_options"`
	CorrectOptions  []int  `json:"correct_options"`
}

type SubmitResult struct {
	AttemptID       string           `json:"attemptId"`
	Score           int              `json:"score"`
	TotalQuestions  int              `json:"totalQuestions"`
	QuestionResults []QuestionResult `json:"question_results"`
}

type AttemptStatus struct {
	HasAttempted bool   `json:"hasAttempted"`
	Message      string `json:"message,omitempty"`
	AttemptID    string `json:"attemptId,omitempty"`
}

type AnnotatedOption struct {
	Text            string `json:"text"`
	IsSelected      bool   `json:"isSelected"`
	IsCorrectAnswer bool   `json:"isCorrectAnswer"`
}

type AnnotatedQuestion struct {
	QuestionText string            `json:"question_text"`
	IsCorrect    bool              `json:"isCorrect"`
	Options      []AnnotatedOption `json:"options"`
}

// QuizResult is the review of one student's attempt. When the student
// has not attempted the quiz yet only Quiz is populated.
type QuizResult struct {
	QuizID         string              `json:"quizId"`
	QuizName       string              `json:"quizName"`
	QuizCode       string              `json:"quizCode"`
	StudentID      string              `json:"studentId"`
	HasAttempted   bool                `json:"hasAttempted"`
	AttemptID      string              `json:"attemptId,omitempty"`
	Score          *int                `json:"score"`
	TotalQuestions int                 `json:"totalQuestions"`
	AttemptDate    *time.Time          `json:"attemptDate,omitempty"`
	Questions      []AnnotatedQuestion `json:"questions,omitempty"`
	UserAnswers    Answers             `json:"userAnswers"`
	Quiz           *QuizView           `json:"quiz,omitempty"`
}

type AttemptedQuiz struct {
	AttemptID      string    `json:"attempt_id" db:"attempt_id"`
	QuizID         string    `json:"quiz_id" db:"quiz_id"`
	QuizName       string    `json:"quiz_name" db:"quiz_name"`
	QuizCode       string    `json:"quiz_code" db:"quiz_code"`
	Score          int       `json:"score" db:"score"`
	TotalQuestions int       `json:"total_questions" db:"total_questions"`
	Percentage     float64   `json:"percentage" db:"percentage"`
	AttemptDate    time.Time `json:"attempt_date" db:"attempt_date"`
	RetestStatus   *string   `json:"retest_status,omitempty" db:"retest_status"`
}
