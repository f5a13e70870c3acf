package engine

import (
	"context"
	"testing"
)

func newEvaluator(t *testing.T) *OPAEvaluator {
	t.Helper()
	e, err := NewOPAEvaluator(context.Background())
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return e
}

func TestAllow_AdminManagesUsers(t *testing.T) {
	e := newEvaluator(t)
	for _, action := range []Action{ActionUserCreate, ActionUserList, ActionUserGet, ActionUserUpdateStatus, ActionUserUpdateRole} {
		allowed, err := e.Allow(context.Background(), Request{UserID: "u1", Role: "admin", Action: action})
		if err != nil {
			t.Fatalf("Allow(%s): %v", action, err)
		}
		if !allowed {
			t.Errorf("admin should be allowed %s", action)
		}
	}
}

func TestAllow_UserReadsButCannotMutate(t *testing.T) {
	e := newEvaluator(t)
	cases := []struct {
		action Action
		want   bool
	}{
		{ActionUserList, true},
		{ActionUserGet, true},
		{ActionUserCreate, false},
		{ActionUserUpdateStatus, false},
		{ActionUserUpdateRole, false},
	}
	for _, tc := range cases {
		allowed, err := e.Allow(context.Background(), Request{UserID: "u1", Role: "user", Action: tc.action, TargetUserID: "u2"})
		if err != nil {
			t.Fatalf("Allow(%s): %v", tc.action, err)
		}
		if allowed != tc.want {
			t.Errorf("role user, action %s: allowed = %v, want %v", tc.action, allowed, tc.want)
		}
	}
}

func TestAllow_EmptyRoleDeniedEverything(t *testing.T) {
	e := newEvaluator(t)
	for _, action := range []Action{ActionUserCreate, ActionUserList, ActionUserGet} {
		allowed, err := e.Allow(context.Background(), Request{Action: action})
		if err != nil {
			t.Fatalf("Allow(%s): %v", action, err)
		}
		if allowed {
			t.Errorf("empty role should be denied %s", action)
		}
	}
}
