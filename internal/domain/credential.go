package domain

import "time"

// ManagerCredential is the login/password pair a manager uses for the web
// dashboard. PasswordHash is a bcrypt hash; the plaintext is never stored.
type ManagerCredential struct {
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	UserID       int32     `json:"user_id"`
	IsActive     bool      `json:"is_active"`
	CreatedOn    time.Time `json:"created_on"`
}
