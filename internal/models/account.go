package models

import "time"

type AccountKind string

const (
	KindStudent AccountKind = "student"
	KindTeacher AccountKind = "teacher"
)

func (k AccountKind) Valid() bool {
	return k == KindStudent || k == KindTeacher
}

type Account struct {
	ID           string      `json:"id" db:"id"`
	Username     string      `json:"username" db:"username"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Kind         AccountKind `json:"kind" db:"kind"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// AccountView is the account projection returned to clients.
type AccountView struct {
	ID       string      `json:"id" db:"id"`
	Username string      `json:"username" db:"username"`
	Email    string      `json:"email" db:"email"`
	Kind     AccountKind `json:"kind" db:"kind"`
}

func (a *Account) View() AccountView {
	return AccountView{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Kind:     a.Kind,
	}
}
