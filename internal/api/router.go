package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/expensio/expensio-be/internal/api/handlers"
	"github.com/expensio/expensio-be/internal/auth"
	"github.com/expensio/expensio-be/internal/config"
	"github.com/expensio/expensio-be/internal/services"
	"github.com/expensio/expensio-be/web"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, authService services.AuthServiceProvider, expenseService services.ExpenseServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	requireAuth := auth.Middleware(authService)

	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/profile", authHandler.GetProfile)
				r.Put("/profile", authHandler.UpdateProfile)
				r.Post("/change-password", authHandler.ChangePassword)
				r.Post("/logout", authHandler.Logout)
				r.Post("/refresh", authHandler.Refresh)
			})
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", expenseHandler.Create)
			r.Get("/", expenseHandler.List)
			// Static segment, so "analytics" is never read as an ID.
			r.Get("/analytics", expenseHandler.Analytics)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", expenseHandler.Get)
				r.Put("/", expenseHandler.Update)
				r.Delete("/", expenseHandler.Delete)
			})
		})
	})

	// Embedded web client
	r.Handle("/*", web.Static())

	return r
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
