package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/rbac"
)

func seedUser(t *testing.T, s exam.Repo, u exam.User, password string) exam.User {
	t.Helper()
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		u.PasswordHash = string(h)
	}
	if err := s.CreateUser(context.Background(), &u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("secret")
	tok, err := a.IssueJWT("u-1", rbac.RoleUser)
	if err != nil {
		t.Fatal(err)
	}
	c, err := a.Parse(tok)
	if err != nil || c.Sub != "u-1" || c.Role != rbac.RoleUser {
		t.Fatalf("claims = %+v, %v", c, err)
	}
	if _, err := NewAuthService("other").Parse(tok); err == nil {
		t.Fatal("token accepted with wrong key")
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Sub: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	s, _ := expired.SignedString([]byte("secret"))
	if _, err := a.Parse(s); err == nil {
		t.Fatal("expired token accepted")
	}
}

func login(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
	return rec
}

func TestLoginHandler(t *testing.T) {
	store := exam.NewInMemoryStore()
	seedUser(t, store, exam.User{ID: "u-1", Username: "alice", Registered: true}, "pw")
	seedUser(t, store, exam.User{ID: "u-2", Username: "root", Registered: true, Admin: true}, "toor")
	seedUser(t, store, exam.User{ID: "g-1", Username: "guest-1"}, "")
	a := NewAuthService("secret")
	h := LoginHandler(a, store)

	for _, tc := range []struct {
		body string
		want int
	}{
		{`{"username":"alice","password":"pw"}`, http.StatusOK},
		{`{"username":"alice","password":"nope"}`, http.StatusUnauthorized},
		{`{"username":"bob","password":"pw"}`, http.StatusUnauthorized},
		{`{"username":"guest-1","password":"x"}`, http.StatusUnauthorized},
		{`{"username":"alice"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	} {
		if rec := login(h, tc.body); rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.body, rec.Code, tc.want)
		}
	}

	rec := login(h, `{"username":"root","password":"toor"}`)
	var out TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	c, err := a.Parse(out.AccessToken)
	if err != nil || c.Sub != "u-2" || c.Role != rbac.RoleAdmin || !out.Admin {
		t.Fatalf("admin login = %+v %+v, %v", out, c, err)
	}
}

func TestJWTMiddlewareAndAttachRole(t *testing.T) {
	store := exam.NewInMemoryStore()
	seedUser(t, store, exam.User{ID: "u-1", Username: "alice", Registered: true}, "pw")
	a := NewAuthService("secret")

	var gotSub, gotRole string
	h := JWTMiddleware(a)(AttachRoleFromStore(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	})))

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/courses", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call(""); code != http.StatusUnauthorized {
		t.Fatalf("no header: %d", code)
	}
	if code := call("Bearer garbage"); code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", code)
	}

	// a forged admin claim is replaced by the stored role
	tok, _ := a.IssueJWT("u-1", rbac.RoleAdmin)
	if code := call("Bearer " + tok); code != http.StatusOK {
		t.Fatalf("valid token: %d", code)
	}
	if gotSub != "u-1" || gotRole != rbac.RoleUser {
		t.Fatalf("context = %q %q", gotSub, gotRole)
	}

	ghost, _ := a.IssueJWT("deleted", rbac.RoleUser)
	if code := call("Bearer " + ghost); code != http.StatusUnauthorized {
		t.Fatalf("unknown user: %d", code)
	}
}
