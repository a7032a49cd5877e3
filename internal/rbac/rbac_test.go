package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(map[string][]string{
		"reviewer": {"stats:*", "exam:view"},
	})
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"reviewer", "exam:view", true},
		{"reviewer", "stats:reset", true},
		{"reviewer", "exam:import", false},
		{"nobody", "exam:view", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestDefaultPolicy(t *testing.T) {
	c := NewChecker(nil)
	if c.Has(RoleGuest, "user:change_password") {
		t.Error("guest must not change passwords")
	}
	if !c.Has(RoleUser, "stats:record") || c.Has(RoleUser, "exam:import") {
		t.Error("user permissions")
	}
	for _, p := range []string{"exam:import", "exam:view-hidden", "stats:reset", "users:create", "image:upload"} {
		if !c.Has(RoleAdmin, p) {
			t.Errorf("admin lacks %s", p)
		}
	}
}

func TestRoleFor(t *testing.T) {
	if RoleFor(true, false) != RoleAdmin || RoleFor(false, true) != RoleUser || RoleFor(false, false) != RoleGuest {
		t.Fatal("RoleFor mapping")
	}
}

func TestRequire(t *testing.T) {
	h := Require("exam:import")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for _, tc := range []struct {
		role string
		want int
	}{
		{"", http.StatusUnauthorized},
		{RoleUser, http.StatusForbidden},
		{RoleAdmin, http.StatusNoContent},
	} {
		req := httptest.NewRequest(http.MethodPost, "/import", nil)
		if tc.role != "" {
			req = req.WithContext(WithRole(req.Context(), tc.role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("role %q: status = %d, want %d", tc.role, rec.Code, tc.want)
		}
	}
	if Can(context.Background(), "exam:view") {
		t.Error("Can without role")
	}
}
