package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	authmw "github.com/mind-engage/memorizer/internal/auth/middleware"
	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/importer"
	"github.com/mind-engage/memorizer/internal/rbac"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Validation messages are
// passed through verbatim.
func writeError(w http.ResponseWriter, err error) {
	var ve *importer.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Msg, http.StatusBadRequest)
	case errors.Is(err, exam.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, exam.ErrConflict):
		http.Error(w, "already exists", http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// decodeBody reads a JSON body into dst and runs its validate tags.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func viewerFrom(r *http.Request) exam.Viewer {
	ctx := r.Context()
	return exam.Viewer{
		UserID: authmw.SubjectFromContext(ctx),
		Admin:  rbac.Can(ctx, "exam:view-hidden"),
	}
}

func pathInt(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return v, err == nil && v > 0
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
