package http

import (
	"net/http"

	"github.com/mind-engage/memorizer/internal/exam"
)

type updateExamVisibilityReq struct {
	Hidden *bool `json:"hidden" validate:"required"`
}

// POST /admin/courses/{code}/exams/{exam}/visibility  { "hidden": true }
func AdminUpdateExamVisibilityHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateExamVisibilityReq
		if err := decodeBody(r, &req); err != nil {
			http.Error(w, "hidden (bool) required", http.StatusBadRequest)
			return
		}
		_, e, ok := resolveExam(w, r, store)
		if !ok {
			return
		}
		if err := store.SetExamHidden(r.Context(), e.ID, *req.Hidden); err != nil {
			writeError(w, err)
			return
		}
		e.Hidden = *req.Hidden
		writeJSON(w, http.StatusOK, map[string]any{"id": e.ID, "name": e.Name, "hidden": e.Hidden})
	}
}
