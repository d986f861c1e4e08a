package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/rollcall/internal/middleware"
)

// NewRouter constructs the HTTP handler serving the rollcall API.
//
// Routes:
//
//	GET  /api/healthz     → Health
//	GET  /api/check-auth  → authHandler.CheckAuth
//	POST /api/register    → authHandler.Register
//	POST /api/login       → authHandler.Login
//	POST /api/logout      → authHandler.Logout         (session required)
//	POST /api/upload      → uploadHandler.Upload       (session required)
//	POST /api/known-face  → uploadHandler.KnownFace    (session required)
//	GET  /api/history     → recordsHandler.History     (session required)
//	GET  /api/dashboard   → recordsHandler.Dashboard   (session required)
//	GET  /api/known-faces → recordsHandler.KnownFaces  (session required)
//
// requireAuth guards the session-only routes.
func NewRouter(
	authHandler *AuthHandler,
	uploadHandler *UploadHandler,
	recordsHandler *RecordsHandler,
	requireAuth func(http.Handler) http.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", Health)
		r.Get("/check-auth", authHandler.CheckAuth)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", authHandler.Logout)
			r.Get("/history", recordsHandler.History)
			r.Get("/dashboard", recordsHandler.Dashboard)
			r.Get("/known-faces", recordsHandler.KnownFaces)

			r.Group(func(r chi.Router) {
				r.Use(chiMiddleware.AllowContentType("multipart/form-data"))
				r.Post("/upload", uploadHandler.Upload)
				r.Post("/known-face", uploadHandler.KnownFace)
			})
		})
	})

	return r
}
