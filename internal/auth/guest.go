package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	authmw "github.com/mind-engage/memorizer/internal/auth/middleware"
	"github.com/mind-engage/memorizer/internal/config"
	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/rbac"
)

const guestCookie = "memorizer_guest_id"

// GuestLoginHandler hands out an unregistered account so stats can be kept
// without signing up. A browser that already holds a guest cookie gets the
// same account back.
func GuestLoginHandler(a *authmw.AuthService, users exam.Repo, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.EnableGuestAuth {
			http.Error(w, "guest auth disabled", http.StatusForbidden)
			return
		}
		ctx := r.Context()

		var u exam.User
		if c, err := r.Cookie(guestCookie); err == nil && c.Value != "" {
			found, err := users.FindUserByID(ctx, c.Value)
			if err == nil && !found.Registered {
				u = found
			}
		}
		if u.ID == "" {
			id := uuid.NewString()
			u = exam.User{ID: id, Username: "guest-" + id[:8], Name: "Guest"}
			if err := users.CreateUser(ctx, &u); err != nil {
				if errors.Is(err, exam.ErrConflict) {
					http.Error(w, "try again", http.StatusConflict)
					return
				}
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			log.Printf("created guest user %s", u.Username)
		}

		tok, err := a.IssueJWT(u.ID, rbac.RoleGuest)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    u.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   cfg.Mode == config.ModeOnline,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(authmw.TokenResponse{AccessToken: tok, Username: u.Username})
	}
}
