package domain

import "time"

// AuditLog represents one recorded auth or user-management event.
type AuditLog struct {
	ID        string
	UserID    string // empty for events with no resolved user (e.g. failed login)
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Actions recorded by the auth core.
const (
	ActionLoginSuccess  = "login_success"
	ActionLoginFailure  = "login_failure"
	ActionTokenRefresh  = "token_refresh"
	ActionLogout        = "logout"
	ActionUserCreated   = "user_created"
	ActionStatusChanged = "status_changed"
	ActionRoleChanged   = "role_changed"
)
