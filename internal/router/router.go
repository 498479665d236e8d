package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"vbabrew-backend/internal/config"
	"vbabrew-backend/internal/handlers"
	"vbabrew-backend/internal/middleware"
)

func New(
	cfg *config.Config,
	redisClient *redis.Client,
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	generateHandler *handlers.GenerateHandler,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(cfg.FrontendURL))

	authLimiter := middleware.NewRateLimiter(redisClient, "auth", cfg.AuthRateLimit, time.Minute)
	generateLimiter := middleware.NewRateLimiter(redisClient, "generate", cfg.GenerateRateLimit, time.Minute)

	// Root banner + health check
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"VBAbrew API is running","version":"1.0.0"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/me", authHandler.Me)
				r.Put("/password", authHandler.ChangePassword)
			})
		})

		// ──── Chat Routes ────
		r.Route("/chats", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", chatHandler.List)
			r.Post("/", chatHandler.Create)
			r.Get("/{id}", chatHandler.Get)
			r.Put("/{id}", chatHandler.Update)
			r.Delete("/{id}", chatHandler.Delete)
		})

		// ──── Generation Route (auth optional) ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.OptionalMiddleware)
			r.Use(generateLimiter.Middleware)
			r.Post("/generate", generateHandler.Generate)
		})
	})

	return r
}
