package models

import "time"

type Subscription struct {
	StudentID string    `json:"student_id" db:"student_id"`
	TeacherID string    `json:"teacher_id" db:"teacher_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type UpcomingQuiz struct {
	QuizID      string    `json:"quiz_id" db:"quiz_id"`
	QuizName    string    `json:"quiz_name" db:"quiz_name"`
	QuizCode    string    `json:"quiz_code" db:"quiz_code"`
	TeacherID   string    `json:"teacher_id" db:"teacher_id"`
	TeacherName string    `json:"teacher_name" db:"teacher_name"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
}
