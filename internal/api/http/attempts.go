package http

import (
	"net/http"

	authmw "github.com/mind-engage/memorizer/internal/auth/middleware"
	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/stats"
)

type recordAttemptReq struct {
	Correct *bool `json:"correct" validate:"required"`
}

// POST /questions/{id}/attempts  { "correct": true }
func RecordAttemptHandler(store exam.Store, rec *stats.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qid, ok := pathInt(r, "id")
		if !ok {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		var req recordAttemptReq
		if err := decodeBody(r, &req); err != nil {
			http.Error(w, "correct (bool) required", http.StatusBadRequest)
			return
		}
		if _, err := store.GetQuestion(r.Context(), qid); err != nil {
			writeError(w, err)
			return
		}
		st, err := rec.RecordAttempt(r.Context(), authmw.SubjectFromContext(r.Context()), qid, *req.Correct)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, st)
	}
}

func HasAnsweredHandler(rec *stats.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qid, ok := pathInt(r, "id")
		if !ok {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		answered, err := rec.HasAnswered(r.Context(), authmw.SubjectFromContext(r.Context()), qid)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"answered": answered})
	}
}
