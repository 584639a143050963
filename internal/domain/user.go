package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// Identity is one row per external chat identity. Role and IsActive here are
// the single source of truth for authorization; nothing else caches them.
type Identity struct {
	ID         int32     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username,omitempty"`
	Role       Role      `json:"role"`
	IsActive   bool      `json:"is_active"`
	ManagerID  *int32    `json:"manager_id,omitempty"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	CreatedOn  time.Time `json:"created_on"`
}

// FullName joins the profile name parts, falling back to the username.
func (i *Identity) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if name != "" {
		return name
	}
	return i.Username
}
