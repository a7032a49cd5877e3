package auth

import (
	"errors"
	"net/http"

	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/rbac"
)

// AttachRoleFromStore replaces the role claimed by the token with the one
// derived from the stored user, so promotions and demotions apply to tokens
// already issued. Tokens of deleted users are rejected.
func AttachRoleFromStore(users exam.Repo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			u, err := users.FindUserByID(ctx, SubjectFromContext(ctx))
			switch {
			case errors.Is(err, exam.ErrNotFound):
				http.Error(w, "unknown user", http.StatusUnauthorized)
			case err != nil:
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, rbac.RoleFor(u.Admin, u.Registered))))
			}
		})
	}
}
