package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/memorizer/internal/exam"
)

// Handlers only; routes live in router.go.

func ListCoursesHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courses, err := store.ListCourses(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]exam.CourseView, 0, len(courses))
		for _, c := range courses {
			out = append(out, exam.ViewCourse(c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetCourseHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.FindCourseByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exam.ViewCourse(c))
	}
}

// ListCourseExamsHandler drops hidden exams for non-admins.
func ListCourseExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.FindCourseByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeError(w, err)
			return
		}
		exams, err := store.ListExams(r.Context(), c.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		v := viewerFrom(r)
		out := make([]exam.ExamView, 0, len(exams))
		for _, e := range exams {
			if ev := exam.ViewExam(e, v); ev != nil {
				out = append(out, *ev)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// CourseQuestionHandler returns the n-th (1-based) visible question of a
// course, across all of its exams.
func CourseQuestionHandler(store exam.Store, images exam.ImageResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		n, ok := pathInt(r, "n")
		if !ok {
			http.Error(w, "question number must be a positive integer", http.StatusBadRequest)
			return
		}
		c, err := store.FindCourseByCode(ctx, chi.URLParam(r, "code"))
		if err != nil {
			writeError(w, err)
			return
		}
		v := viewerFrom(r)
		qs, err := store.ListQuestions(ctx, exam.QuestionListOpts{
			CourseID: c.ID, IncludeHidden: v.Admin, Offset: int(n - 1), Limit: 1,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		if len(qs) == 0 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		owners, err := examsByID(ctx, store, c.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exam.ViewQuestion(qs[0], owners[qs[0].ExamID], c.Code, v, images))
	}
}

type questionPage struct {
	Total     int                  `json:"total"`
	Questions []*exam.QuestionView `json:"questions"`
}

// ExamQuestionsHandler lists the questions of one exam, paged with
// ?limit=&offset=.
func ExamQuestionsHandler(store exam.Store, images exam.ImageResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		c, e, ok := resolveExam(w, r, store)
		if !ok {
			return
		}
		v := viewerFrom(r)
		opts := exam.QuestionListOpts{
			ExamID:        e.ID,
			IncludeHidden: v.Admin,
			Limit:         parseIntDefault(r.URL.Query().Get("limit"), 0),
			Offset:        parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		total, err := store.CountQuestions(ctx, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		qs, err := store.ListQuestions(ctx, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		page := questionPage{Total: total, Questions: make([]*exam.QuestionView, 0, len(qs))}
		for _, q := range qs {
			page.Questions = append(page.Questions, exam.ViewQuestion(q, e, c.Code, v, images))
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// ExamQuestionHandler returns question n (1-based) of an exam.
func ExamQuestionHandler(store exam.Store, images exam.ImageResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, ok := pathInt(r, "n")
		if !ok {
			http.Error(w, "question number must be a positive integer", http.StatusBadRequest)
			return
		}
		c, e, ok := resolveExam(w, r, store)
		if !ok {
			return
		}
		qs, err := store.ListQuestions(r.Context(), exam.QuestionListOpts{
			ExamID: e.ID, IncludeHidden: true, Offset: int(n - 1), Limit: 1,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		if len(qs) == 0 {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, exam.ViewQuestion(qs[0], e, c.Code, viewerFrom(r), images))
	}
}

// resolveExam looks up {code}/{exam}. Hidden exams are reported as missing to
// non-admins.
func resolveExam(w http.ResponseWriter, r *http.Request, store exam.Store) (exam.Course, exam.Exam, bool) {
	ctx := r.Context()
	c, err := store.FindCourseByCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return exam.Course{}, exam.Exam{}, false
	}
	e, err := store.FindExamByNameAndCourse(ctx, chi.URLParam(r, "exam"), c.ID)
	if err != nil {
		writeError(w, err)
		return exam.Course{}, exam.Exam{}, false
	}
	if exam.ViewExam(e, viewerFrom(r)) == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return exam.Course{}, exam.Exam{}, false
	}
	return c, e, true
}

func examsByID(ctx context.Context, store exam.Store, courseID int64) (map[int64]exam.Exam, error) {
	exams, err := store.ListExams(ctx, courseID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]exam.Exam, len(exams))
	for _, e := range exams {
		out[e.ID] = e
	}
	return out, nil
}
