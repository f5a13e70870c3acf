package rbac

import (
	"context"
	"errors"
	"testing"

	"auth-core/internal/auth/service"
	"auth-core/internal/authz/engine"
	userdomain "auth-core/internal/user/domain"
)

func newEvaluator(t *testing.T) engine.Evaluator {
	t.Helper()
	eval, err := engine.NewOPAEvaluator(context.Background())
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return eval
}

func TestRequireAdminAction(t *testing.T) {
	eval := newEvaluator(t)
	admin := &service.Identity{UserID: "u1", Role: userdomain.RoleAdmin}
	user := &service.Identity{UserID: "u2", Role: userdomain.RoleUser}

	if err := Require(context.Background(), eval, admin, engine.ActionUserCreate, ""); err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if err := Require(context.Background(), eval, user, engine.ActionUserCreate, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user create: err = %v, want ErrForbidden", err)
	}
	if err := Require(context.Background(), eval, user, engine.ActionUserUpdateRole, "u3"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("user update role: err = %v, want ErrForbidden", err)
	}
}

func TestRequireReadActionsAllowAnyRole(t *testing.T) {
	eval := newEvaluator(t)
	user := &service.Identity{UserID: "u2", Role: userdomain.RoleUser}

	if err := Require(context.Background(), eval, user, engine.ActionUserList, ""); err != nil {
		t.Fatalf("user list: %v", err)
	}
	if err := Require(context.Background(), eval, user, engine.ActionUserGet, "u3"); err != nil {
		t.Fatalf("user get: %v", err)
	}
}

func TestRequireNilIdentity(t *testing.T) {
	eval := newEvaluator(t)
	if err := Require(context.Background(), eval, nil, engine.ActionUserList, ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("nil identity: err = %v, want ErrForbidden", err)
	}
}
