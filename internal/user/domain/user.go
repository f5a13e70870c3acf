package domain

import (
	"errors"
	"time"
)

// User is the core user entity. PasswordHash is never serialized outward.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone,omitempty"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	PasswordHash string     `json:"-"`
	PushToken    string     `json:"push_token,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleUser
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusPending   UserStatus = "pending"
)

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s UserStatus) bool {
	switch s {
	case UserStatusActive, UserStatusSuspended, UserStatusPending:
		return true
	}
	return false
}

// Validate validates the user for persistence. Returns an error describing the
// first validation failure. Defaults Role to user and Status to pending when unset.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if !ValidRole(u.Role) {
		return errors.New("unknown role")
	}
	if u.Status == "" {
		u.Status = UserStatusPending
	}
	if !ValidStatus(u.Status) {
		return errors.New("unknown status")
	}
	return nil
}
