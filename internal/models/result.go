package models

import "time"

type LeaderboardEntry struct {
	StudentID   string    `json:"student_id" db:"student_id"`
	StudentName string    `json:"student_name" db:"student_name"`
	Score       int       `json:"score" db:"score"`
	Rank        int       `json:"rank" db:"rank"`
	AttemptDate time.Time `json:"attempt_date" db:"attempt_date"`
}

type Leaderboard struct {
	QuizName string             `json:"quiz_name"`
	QuizCode string             `json:"quiz_code"`
	Rankings []LeaderboardEntry `json:"rankings"`
}

type QuizAttemptRow struct {
	AttemptID      string    `json:"attempt_id" db:"attempt_id"`
	StudentID      string    `json:"student_id" db:"student_id"`
	StudentName    string    `json:"student_name" db:"student_name"`
	Score          int       `json:"score" db:"score"`
	TotalQuestions int       `json:"total_questions" db:"total_questions"`
	Percentage     float64   `json:"percentage" db:"percentage"`
	AttemptDate    time.Time `json:"attempt_date" db:"attempt_date"`
	RetestStatus   *string   `json:"retest_status,omitempty" db:"retest_status"`
}

type UserStats struct {
	TotalAttempts    int     `json:"total_attempts" db:"total_attempts"`
	AverageScore     float64 `json:"average_score" db:"average_score"`
	CompletedQuizzes int     `json:"completed_quizzes" db:"completed_quizzes"`
}

type ResultsExport struct {
	Object    string    `json:"object"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expires_at"`
}
