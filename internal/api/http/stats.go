package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/memorizer/internal/auth/middleware"
	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/stats"
)

type statsResponse struct {
	Rows    []exam.Stats  `json:"rows"`
	Summary stats.Summary `json:"summary"`
}

// GET /stats/{code}
func CourseStatsHandler(store exam.Store, rec *stats.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if _, err := store.FindCourseByCode(r.Context(), code); err != nil {
			writeError(w, err)
			return
		}
		rows, err := rec.ForCourse(r.Context(), authmw.SubjectFromContext(r.Context()), code)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{Rows: rows, Summary: stats.Summarize(rows)})
	}
}

// GET /stats/{code}/{exam}
func ExamStatsHandler(store exam.Store, rec *stats.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, e, ok := resolveExam(w, r, store)
		if !ok {
			return
		}
		rows, err := rec.ForExam(r.Context(), authmw.SubjectFromContext(r.Context()), c.Code, e.Name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{Rows: rows, Summary: stats.Summarize(rows)})
	}
}

type resetStatsReq struct {
	UserID     string `json:"user_id" validate:"required"`
	CourseCode string `json:"course_code"` // all courses when empty
}

// POST /admin/stats/reset  { "user_id": "...", "course_code": "CS101" }
func ResetStatsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetStatsReq
		if err := decodeBody(r, &req); err != nil {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		n, err := store.ResetStats(r.Context(), req.UserID, req.CourseCode)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"reset": n})
	}
}
