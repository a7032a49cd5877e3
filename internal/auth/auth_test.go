package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/memorizer/internal/auth/middleware"
	"github.com/mind-engage/memorizer/internal/config"
	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/rbac"
)

func TestGuestLogin(t *testing.T) {
	store := exam.NewInMemoryStore()
	a := authmw.NewAuthService("secret")
	h := GuestLoginHandler(a, store, config.Config{EnableGuestAuth: true})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out authmw.TokenResponse
	_ = json.NewDecoder(rec.Body).Decode(&out)
	c, err := a.Parse(out.AccessToken)
	if err != nil || c.Role != rbac.RoleGuest {
		t.Fatalf("claims = %+v, %v", c, err)
	}
	u, err := store.FindUserByID(context.Background(), c.Sub)
	if err != nil || u.Registered || u.Admin || u.Username != out.Username {
		t.Fatalf("guest user = %+v, %v", u, err)
	}

	// the cookie brings the same guest back
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != c.Sub {
		t.Fatalf("cookies = %+v", cookies)
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	req.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	var again authmw.TokenResponse
	_ = json.NewDecoder(rec2.Body).Decode(&again)
	if again.Username != out.Username {
		t.Fatalf("guest not reused: %q vs %q", again.Username, out.Username)
	}
}

func TestGuestLoginDisabled(t *testing.T) {
	h := GuestLoginHandler(authmw.NewAuthService("s"), exam.NewInMemoryStore(), config.Config{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	store := exam.NewInMemoryStore()
	hash, _ := bcrypt.GenerateFromPassword([]byte("toor"), bcrypt.MinCost)

	created, err := EnsureAdmin(ctx, store, "root", string(hash))
	if err != nil || !created {
		t.Fatalf("first = %v, %v", created, err)
	}
	created, err = EnsureAdmin(ctx, store, "root", string(hash))
	if err != nil || created {
		t.Fatalf("second = %v, %v", created, err)
	}
	u, _ := store.FindUserByUsername(ctx, "root")
	if !u.Admin || !u.Registered {
		t.Fatalf("admin = %+v", u)
	}
	if _, err := EnsureAdmin(ctx, store, "other", "plaintext"); err == nil {
		t.Fatal("plaintext hash accepted")
	}
	if created, err := EnsureAdmin(ctx, store, "", ""); created || err != nil {
		t.Fatalf("unconfigured = %v, %v", created, err)
	}
}

func TestNewUser(t *testing.T) {
	u, err := NewUser("alice", "Alice", "pw", false)
	if err != nil {
		t.Fatal(err)
	}
	if u.ID == "" || !u.Registered || u.Admin {
		t.Fatalf("user = %+v", u)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw")) != nil {
		t.Fatal("hash mismatch")
	}
}
