// Package rbac bridges the HTTP layer and the policy engine: handlers call
// Require with the resolved identity and the action they are about to perform.
package rbac

import (
	"context"
	"errors"

	"auth-core/internal/auth/service"
	"auth-core/internal/authz/engine"
)

// ErrForbidden is returned when policy denies the action for a valid identity.
var ErrForbidden = errors.New("forbidden")

// Require evaluates the policy for id performing action on targetUserID.
// Returns nil when allowed, ErrForbidden when denied, and the evaluation
// error when the policy engine itself fails.
func Require(ctx context.Context, eval engine.Evaluator, id *service.Identity, action engine.Action, targetUserID string) error {
	if id == nil || id.UserID == "" {
		return ErrForbidden
	}
	ok, err := eval.Allow(ctx, engine.Request{
		UserID:       id.UserID,
		Role:         string(id.Role),
		Action:       action,
		TargetUserID: targetUserID,
	})
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
