package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	auth "github.com/mind-engage/mindengage-authoring/internal/auth/middleware"
	"github.com/mind-engage/mindengage-authoring/internal/exam"
	"github.com/mind-engage/mindengage-authoring/internal/rbac"
	"github.com/mind-engage/mindengage-authoring/internal/storage"
)

type Deps struct {
	Store  exam.Store
	Blobs  storage.BlobStore
	Auth   *auth.AuthService
	Logins auth.Logins
	// LocalAuth mounts /auth/login.
	LocalAuth bool
	Log       logrus.FieldLogger
}

// Mount registers the authoring API on r. Request logging, recovery and
// CORS are left to the caller.
func Mount(r chi.Router, d Deps) {
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.LocalAuth {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Logins))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermExamCreate)).
			Post("/exams", CreateExamHandler(d.Store, d.Log))
		pr.With(rbac.Require(rbac.PermExamView)).
			Get("/exams/{examID}", GetExamHandler(d.Store))
		pr.With(rbac.Require(rbac.PermExamEdit)).
			Put("/exams/{examID}", UpdateExamHandler(d.Store, d.Log))
		pr.With(rbac.Require(rbac.PermExamPublish)).
			Put("/exams/{examID}/status", SetStatusHandler(d.Store, d.Log))
		pr.With(rbac.Require(rbac.PermExamImport)).
			Post("/exams/{examID}/import", ImportQuestionsHandler(d.Store, d.Blobs, d.Log))
		if el, ok := d.Store.(EventLister); ok {
			pr.With(rbac.Require(rbac.PermExamEdit)).
				Get("/exams/{examID}/events", ListEventsHandler(el))
		}

		pr.With(rbac.Require(rbac.PermAttemptCreate)).
			Post("/exams/{examID}/attempts", CreateAttemptHandler(d.Store))
		pr.With(rbac.RequireAttemptOwner("user_id")).
			Get("/assessment-results", ListAttemptsHandler(d.Store))

		pr.With(rbac.Require(rbac.PermExamImport)).
			Route("/uploads", func(ur chi.Router) { MountUploads(ur, d.Blobs) })
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
}
