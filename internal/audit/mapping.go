package audit

import (
	"net/http"
	"strings"
)

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// Route overrides for the auth endpoints, which do not follow the plain
// verb/resource shape.
var routeOverrides = map[string]ActionResource{
	"POST /v1/auth/register":    {Action: "register", Resource: "auth"},
	"POST /v1/auth/otp/request": {Action: "otp_requested", Resource: "auth"},
	"POST /v1/auth/otp/verify":  {Action: "login", Resource: "auth"},
	"POST /v1/auth/logout":      {Action: "logout", Resource: "auth"},
}

// ParseRoute returns action and resource for an HTTP method and route
// template (e.g. GET /v1/admin/patients). Auth endpoints map to their domain
// actions; other routes derive the action from the method and the resource
// from the last non-parameter path segment, singularized.
func ParseRoute(method, routePath string) ActionResource {
	if ar, ok := routeOverrides[method+" "+routePath]; ok {
		return ar
	}
	resource := "unknown"
	plural := false
	segments := strings.Split(strings.Trim(routePath, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if s == "" || strings.HasPrefix(s, ":") || strings.HasPrefix(s, "*") {
			continue
		}
		s = strings.ToLower(s)
		plural = strings.HasSuffix(s, "s") && len(s) > 1
		resource = singularize(s)
		break
	}
	action := methodToAction(method)
	// GET on a collection route is a list, not a get.
	if method == http.MethodGet && plural {
		action = "list"
	}
	return ActionResource{Action: action, Resource: resource}
}

func methodToAction(method string) string {
	switch method {
	case http.MethodGet:
		return "get"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

func singularize(s string) string {
	if strings.HasSuffix(s, "s") && len(s) > 1 {
		return s[:len(s)-1]
	}
	return s
}
