package audit

import "testing"

func TestParseRoute(t *testing.T) {
	cases := []struct {
		method, path string
		action       string
		resource     string
	}{
		{"POST", "/v1/auth/register", "register", "auth"},
		{"POST", "/v1/auth/otp/request", "otp_requested", "auth"},
		{"POST", "/v1/auth/otp/verify", "login", "auth"},
		{"POST", "/v1/auth/logout", "logout", "auth"},
		{"GET", "/v1/profile", "get", "profile"},
		{"PUT", "/v1/profile", "update", "profile"},
		{"GET", "/v1/admin/patients", "list", "patient"},
		{"GET", "/v1/doctor/patients", "list", "patient"},
		{"DELETE", "/v1/widgets/:id", "delete", "widget"},
		{"GET", "", "get", "unknown"},
	}
	for _, tc := range cases {
		got := ParseRoute(tc.method, tc.path)
		if got.Action != tc.action || got.Resource != tc.resource {
			t.Errorf("ParseRoute(%s %s) = %+v, want {%s %s}", tc.method, tc.path, got, tc.action, tc.resource)
		}
	}
}
