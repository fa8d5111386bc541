package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/sirupsen/logrus"

	"github.com/geovisor/geovisor/internal/auth"
)

// Router builds the full route tree with middleware.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(a.Log))
	r.Use(middleware.Recoverer)

	r.Get("/", a.root)
	r.Get("/health", a.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(httprate.Limit(
				20,
				1*time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
			r.Post("/login", a.login)
			r.Post("/register", a.register)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(a.Users, a.Cfg.SecretKey))

			r.Get("/users/me", a.getMe)
			r.Put("/users/me", a.updateMe)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", a.listProjects)
				r.Post("/", a.createProject)
				r.Get("/{id}", a.getProject)
				r.Put("/{id}", a.updateProject)
				r.Delete("/{id}", a.deleteProject)

				r.Post("/{id}/layers", a.uploadLayer)
				r.Get("/{id}/layers", a.listLayers)
				r.Post("/{id}/measurements", a.createMeasurement)
				r.Get("/{id}/measurements", a.listMeasurements)
			})
			r.Delete("/layers/{id}", a.deleteLayer)
			r.Delete("/measurements/{id}", a.deleteMeasurement)
		})
	})

	return r
}

func (a *API) root(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the GeoVisor API",
	})
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"app":    "GeoVisor",
	})
}

func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("request")
		})
	}
}
