package http

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/memorizer/internal/auth"
	authmw "github.com/mind-engage/memorizer/internal/auth/middleware"
	"github.com/mind-engage/memorizer/internal/exam"
)

type createUserReq struct {
	Username string `json:"username" validate:"required,max=64"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=6"`
	Admin    bool   `json:"admin"`
}

// POST /admin/users
func CreateUserHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserReq
		if err := decodeBody(r, &req); err != nil {
			http.Error(w, "username and password (min 6) required", http.StatusBadRequest)
			return
		}
		u, err := auth.NewUser(req.Username, req.Name, req.Password, req.Admin)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := store.CreateUser(r.Context(), &u); err != nil {
			if errors.Is(err, exam.ErrConflict) {
				http.Error(w, "username taken", http.StatusConflict)
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

// POST /users/change-password
func ChangePasswordHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req changePasswordReq
		if err := decodeBody(r, &req); err != nil {
			http.Error(w, "old_password and new_password (min 6) required", http.StatusBadRequest)
			return
		}

		u, err := store.FindUserByID(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)) != nil {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := store.UpdatePassword(r.Context(), userID, hash); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
