// Package accesspolicy decides whether an authenticated subject may reach a
// route, based on the subject's role and the roles the route requires.
package accesspolicy

import "context"

// Decision is the result of a route access evaluation.
type Decision struct {
	Allowed bool
}

// Evaluator evaluates route access policy using OPA or other engines.
type Evaluator interface {
	// Evaluate decides access for a subject with the given role against a
	// route that requires one of requiredRoles. An empty requiredRoles slice
	// means any authenticated subject may pass.
	Evaluate(ctx context.Context, subjectRole string, requiredRoles []string) (Decision, error)

	// HealthCheck verifies the engine can compile and evaluate its policy.
	HealthCheck(ctx context.Context) error
}
