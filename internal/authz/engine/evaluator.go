package engine

import "context"

// Action names a user-management operation subject to authorization.
type Action string

const (
	ActionUserCreate       Action = "users.create"
	ActionUserList         Action = "users.list"
	ActionUserGet          Action = "users.get"
	ActionUserUpdateStatus Action = "users.update_status"
	ActionUserUpdateRole   Action = "users.update_role"
	ActionAuditList        Action = "audit.list"
)

// Request carries the resolved caller identity and the operation it attempts.
// TargetUserID is the id of the user record being acted on, empty for
// collection-level actions.
type Request struct {
	UserID       string
	Role         string
	Action       Action
	TargetUserID string
}

// Evaluator decides whether a resolved identity may perform an action.
// A false decision with nil error means the caller lacks privilege (Forbidden);
// errors are reserved for evaluation failures.
type Evaluator interface {
	Allow(ctx context.Context, req Request) (bool, error)
}
