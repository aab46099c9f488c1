package models

import "time"

// Data Transfer Objects

type SignupRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=64"`
	Email    string      `json:"email" validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,min=8,max=128"`
	Kind     AccountKind `json:"kind" validate:"required,oneof=student teacher"`
}

type SignupResponse struct {
	UserID string `json:"userId"`
}

type LoginRequest struct {
	Username string      `json:"username" validate:"required,max=64"`
	Password string      `json:"password" validate:"required,max=128"`
	Kind     AccountKind `json:"kind" validate:"required,oneof=student teacher"`
}

type LoginResponse struct {
	Success   bool        `json:"success"`
	User      AccountView `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=128"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128,nefield=CurrentPassword"`
}

type UpdateProfileRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email,max=255"`
}

type CreateQuizRequest struct {
	QuizName  string     `json:"quiz_name" validate:"required,max=255"`
	QuizCode  string     `json:"quiz_code" validate:"omitempty,alphanum,min=4,max=16"`
	DueDate   *time.Time `json:"due_date"`
	Questions []Question `json:"questions" validate:"required,min=1,max=200,dive"`
}

type CreateQuizResponse struct {
	QuizID   string `json:"quizId"`
	QuizCode string `json:"quizCode"`
}

type UpdateQuizRequest struct {
	QuizName  string     `json:"quiz_name" validate:"required,max=255"`
	DueDate   *time.Time `json:"due_date"`
	Questions []Question `json:"questions" validate:"required,min=1,max=200,dive"`
}

type SubmitQuizRequest struct {
	QuizCode string  `json:"quiz_code" validate:"required,max=16"`
	Answers  Answers `json:"answers"`
}

type SubscriptionRequest struct {
	TeacherID string `json:"teacher_id" validate:"required,uuid"`
}

type CreateRetestRequest struct {
	QuizID    string `json:"quiz_id" validate:"required,uuid"`
	AttemptID string `json:"attempt_id" validate:"required,uuid"`
}

type ResolveRetestRequest struct {
	Status          RetestStatus `json:"status" validate:"required,oneof=approved declined"`
	TeacherPassword string       `json:"teacher_password" validate:"required,max=128"`
}
