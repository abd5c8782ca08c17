package accesspolicy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Default Rego policy for route access. A route with no required roles is
// open to any authenticated subject; otherwise the subject's role must be
// one of the required roles. Admin passes everywhere.
const defaultRegoPolicy = `package carelink.access

default allow = false

allow if {
	count(input.route.required_roles) == 0
	input.subject.role != ""
}

allow if {
	some role in input.route.required_roles
	input.subject.role == role
}

allow if {
	input.subject.role == "admin"
}
`

const allowQuery = "data.carelink.access.allow"

// OPAEvaluator evaluates route access with an in-process OPA Rego engine.
// The policy is compiled once at construction.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles the default access policy and returns an
// evaluator backed by it.
func NewOPAEvaluator() (*OPAEvaluator, error) {
	return newOPAEvaluator(defaultRegoPolicy)
}

// NewOPAEvaluatorWithPolicy compiles the given Rego module in place of the
// default policy. The module must define data.carelink.access.allow.
func NewOPAEvaluatorWithPolicy(policy string) (*OPAEvaluator, error) {
	return newOPAEvaluator(policy)
}

func newOPAEvaluator(policy string) (*OPAEvaluator, error) {
	compiler, err := ast.CompileModules(map[string]string{"access.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	query, err := rego.New(
		rego.Query(allowQuery),
		rego.Compiler(compiler),
	).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("prepare access query: %w", err)
	}
	return &OPAEvaluator{query: query}, nil
}

// Evaluate decides access for a subject with the given role. Evaluation
// errors deny access; callers treat a non-nil error as a refusal.
func (e *OPAEvaluator) Evaluate(ctx context.Context, subjectRole string, requiredRoles []string) (Decision, error) {
	input := buildInput(subjectRole, requiredRoles)
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{}, fmt.Errorf("access query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return Decision{}, fmt.Errorf("access query returned non-boolean")
	}
	return Decision{Allowed: allowed}, nil
}

// HealthCheck verifies the prepared query evaluates. Does not touch any
// external dependency. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput("patient", nil)))
	if err != nil {
		return fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("access query returned no result")
	}
	return nil
}

func buildInput(subjectRole string, requiredRoles []string) map[string]interface{} {
	roles := make([]interface{}, 0, len(requiredRoles))
	for _, r := range requiredRoles {
		roles = append(roles, r)
	}
	return map[string]interface{}{
		"subject": map[string]interface{}{
			"role": subjectRole,
		},
		"route": map[string]interface{}{
			"required_roles": roles,
		},
	}
}
