package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Option struct {
	Text      string `json:"text" validate:"required,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	QuestionText string   `json:"question_text" validate:"required,max=2000"`
	Options      []Option `json:"options" validate:"required,min=2,max=10,dive"`
}

// CorrectOptions возвращает индексы правильных вариантов в порядке возрастания.
func (q Question) CorrectOptions() []int {
	correct := make([]int, 0, 1)
	for i, opt := range q.Options {
		if opt.IsCorrect {
			correct = append(correct, i)
		}
	}
	return correct
}

// Questions хранится в JSONB в виде {"questions": [...]}.
type Questions []Question

type questionsDocument struct {
	Questions []Question `json:"questions"`
}

func (q Questions) Value() (driver.Value, error) {
	doc := questionsDocument{Questions: q}
	if doc.Questions == nil {
		doc.Questions = []Question{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	// lib/pq шлет []byte как bytea, поэтому отдаем строку
	return string(raw), nil
}

func (q *Questions) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*q = nil
		return nil
	default:
		return fmt.Errorf("unsupported questions type %T", src)
	}

	var doc questionsDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode questions: %w", err)
	}
	*q = doc.Questions
	return nil
}

type Quiz struct {
	ID        string     `json:"quiz_id" db:"quiz_id"`
	Name      string     `json:"quiz_name" db:"quiz_name"`
	Code      string     `json:"quiz_code" db:"quiz_code"`
	CreatedBy string     `json:"created_by" db:"created_by"`
	Questions Questions  `json:"questions" db:"questions"`
	DueDate   *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

var (
	errNoQuestions     = errors.New("quiz must contain at least one question")
	errTooFewOptions   = errors.New("must have at least two options")
	errNoCorrectOption = errors.New("must have at least one correct option")
	errEmptyText       = errors.New("text must not be empty")
)

// ValidateQuestions проверяет структуру вопросов, которую не покрывают теги валидатора.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return errNoQuestions
	}
	for i, q := range questions {
		if q.QuestionText == "" {
			return fmt.Errorf("question %d: %w", i+1, errEmptyText)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: %w", i+1, errTooFewOptions)
		}
		for j, opt := range q.Options {
			if opt.Text == "" {
				return fmt.Errorf("question %d option %d: %w", i+1, j+1, errEmptyText)
			}
		}
		if len(q.CorrectOptions()) == 0 {
			return fmt.Errorf("question %d: %w", i+1, errNoCorrectOption)
		}
	}
	return nil
}

type PublicOption struct {
	Text string `json:"text"`
}

type PublicQuestion struct {
	QuestionText string         `json:"question_text"`
	Options      []PublicOption `json:"options"`
}

// QuizView is the quiz as served to a student about to take it.
// It never carries correctness flags.
type QuizView struct {
	ID        string           `json:"quiz_id"`
	Name      string           `json:"quiz_name"`
	Code      string           `json:"quiz_code"`
	DueDate   *time.Time       `json:"due_date,omitempty"`
	Questions []PublicQuestion `json:"questions"`
}

func (q *Quiz) PublicView() QuizView {
	questions := make([]PublicQuestion, len(q.Questions))
	for i, question := range q.Questions {
		options := make([]PublicOption, len(question.Options))
		for j, opt := range question.Options {
			options[j] = PublicOption{Text: opt.Text}
		}
		questions[i] = PublicQuestion{
			QuestionText: question.QuestionText,
			Options:      options,
		}
	}

	return QuizView{
		ID:        q.ID,
		Name:      q.Name,
		Code:      q.Code,
		DueDate:   q.DueDate,
		Questions: questions,
	}
}

type QuizSummary struct {
	ID            string     `json:"quiz_id" db:"quiz_id"`
	Name          string     `json:"quiz_name" db:"quiz_name"`
	Code          string     `json:"quiz_code" db:"quiz_code"`
	CreatedBy     string     `json:"created_by" db:"created_by"`
	TeacherName   string     `json:"teacher_name,omitempty" db:"teacher_name"`
	QuestionCount int        `json:"question_count" db:"question_count"`
	DueDate       *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
