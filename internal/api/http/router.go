package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mind-engage/memorizer/internal/auth"
	authmw "github.com/mind-engage/memorizer/internal/auth/middleware"
	"github.com/mind-engage/memorizer/internal/config"
	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/importer"
	"github.com/mind-engage/memorizer/internal/rbac"
	"github.com/mind-engage/memorizer/internal/stats"
	"github.com/mind-engage/memorizer/internal/storage"
)

type Config struct {
	App      config.Config
	Store    exam.Store
	Importer *importer.Importer
	Recorder *stats.Recorder
	Auth     *authmw.AuthService
	Blobs    storage.BlobStore
	Images   exam.ImageResolver
	Ready    func(ctx context.Context) error // nil means always ready
}

// NewRouter builds the gateway's routes. CORS and request logging are left
// to the caller.
func NewRouter(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	if cfg.App.EnableLocalAuth {
		r.Post("/auth/login", authmw.LoginHandler(cfg.Auth, cfg.Store))
	}
	r.Post("/auth/guest", auth.GuestLoginHandler(cfg.Auth, cfg.Store, cfg.App))

	r.Route("/static/img", func(ir chi.Router) {
		MountImages(ir, cfg.Blobs)
	})

	// Protected API (JWT → stored role → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(cfg.Auth), authmw.AttachRoleFromStore(cfg.Store))

		pr.With(rbac.Require("exam:view")).Group(func(vr chi.Router) {
			vr.Get("/courses", ListCoursesHandler(cfg.Store))
			vr.Get("/courses/{code}", GetCourseHandler(cfg.Store))
			vr.Get("/courses/{code}/exams", ListCourseExamsHandler(cfg.Store))
			vr.Get("/courses/{code}/questions/{n}", CourseQuestionHandler(cfg.Store, cfg.Images))
			vr.Get("/courses/{code}/exams/{exam}/questions", ExamQuestionsHandler(cfg.Store, cfg.Images))
			vr.Get("/courses/{code}/exams/{exam}/questions/{n}", ExamQuestionHandler(cfg.Store, cfg.Images))
		})

		pr.With(rbac.Require("stats:record")).
			Post("/questions/{id}/attempts", RecordAttemptHandler(cfg.Store, cfg.Recorder))
		pr.With(rbac.Require("stats:view-own")).
			Get("/questions/{id}/answered", HasAnsweredHandler(cfg.Recorder))
		pr.With(rbac.Require("stats:view-own")).
			Get("/stats/{code}", CourseStatsHandler(cfg.Store, cfg.Recorder))
		pr.With(rbac.Require("stats:view-own")).
			Get("/stats/{code}/{exam}", ExamStatsHandler(cfg.Store, cfg.Recorder))

		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", ChangePasswordHandler(cfg.Store))

		// Admin
		pr.With(rbac.Require("exam:import")).
			Post("/import", ImportHandler(cfg.Importer))
		pr.With(rbac.Require("users:create")).
			Post("/admin/users", CreateUserHandler(cfg.Store))
		pr.With(rbac.Require("stats:reset")).
			Post("/admin/stats/reset", ResetStatsHandler(cfg.Store))
		pr.With(rbac.Require("exam:hide")).
			Post("/admin/courses/{code}/exams/{exam}/visibility", AdminUpdateExamVisibilityHandler(cfg.Store))
		pr.With(rbac.Require("image:upload")).
			Post("/admin/images/{code}", UploadImageHandler(cfg.Blobs, cfg.Images))
		pr.With(rbac.Require("events:view")).
			Get("/admin/events", ListEventsHandler(cfg.Store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(r.Context()); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
