package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/mind-engage/memorizer/internal/api/http"
	"github.com/mind-engage/memorizer/internal/auth"
	authmw "github.com/mind-engage/memorizer/internal/auth/middleware"
	"github.com/mind-engage/memorizer/internal/config"
	"github.com/mind-engage/memorizer/internal/db"
	"github.com/mind-engage/memorizer/internal/exam"
	"github.com/mind-engage/memorizer/internal/importer"
	"github.com/mind-engage/memorizer/internal/stats"
	"github.com/mind-engage/memorizer/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.Load()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()
	store := exam.NewSQLStore(dbh)

	created, err := auth.EnsureAdmin(ctx, store, cfg.AdminUser, cfg.AdminPassHash)
	if err != nil {
		log.Fatalf("admin bootstrap: %v", err)
	}
	if created {
		log.Printf("created admin user %q", cfg.AdminUser)
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	logger := log.Default()
	router := api.NewRouter(api.Config{
		App:      cfg,
		Store:    store,
		Importer: importer.New(store, logger),
		Recorder: stats.New(store, logger),
		Auth:     authmw.NewAuthService(cfg.AuthSecret),
		Blobs:    bs,
		Images:   exam.ImageResolver{Base: cfg.ImageBaseURL},
		Ready:    dbh.PingContext,
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Mount("/", router)

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
