package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Rego policy for the user-management surface: admins manage everything,
// any authenticated user may list users and read individual records.
const userPolicy = `package authcore.users

default allow = false

allow if {
	input.role == "admin"
}

allow if {
	input.action == "users.list"
	input.role != ""
}

allow if {
	input.action == "users.get"
	input.role != ""
}
`

// OPAEvaluator evaluates the user-management policy with the in-process OPA
// Rego engine. The policy is compiled once at construction.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles the built-in policy and returns the evaluator.
func NewOPAEvaluator(ctx context.Context) (*OPAEvaluator, error) {
	q, err := rego.New(
		rego.Query("data.authcore.users.allow"),
		rego.Module("users.rego", userPolicy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile user policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// Allow evaluates the policy for req. Returns false with nil error when the
// policy denies; an error only when evaluation itself fails.
func (e *OPAEvaluator) Allow(ctx context.Context, req Request) (bool, error) {
	input := map[string]any{
		"user_id":   req.UserID,
		"role":      req.Role,
		"action":    string(req.Action),
		"target_id": req.TargetUserID,
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval user policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, nil
	}
	return allowed, nil
}
