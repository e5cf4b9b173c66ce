package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/routepulse/server/internal/auth"
	"github.com/routepulse/server/internal/http/handlers"
	"github.com/routepulse/server/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth        *handlers.AuthHandler
	Users       *handlers.UserHandler
	Posts       *handlers.PostHandler
	Routes      *handlers.RouteHandler
	Challenges  *handlers.ChallengeHandler
	Leaderboard *handlers.LeaderboardHandler
	Friends     *handlers.FriendHandler
	SensorData  *handlers.SensorDataHandler
}

// NewRouter creates a new HTTP router with all routes configured.
// Registration, login, posts, users and the public route listing are
// reachable without a token; everything else sits behind the identity
// middleware.
func NewRouter(h Handlers, tokens *auth.TokenService, log *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	// login/register throttle: 20 attempts per IP per 10 minutes
	authLimiter := middleware.NewRateLimiter(10*time.Minute, 20)

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimitMiddleware(authLimiter, middleware.GetIPKey))
		r.Post("/register", h.Auth.HandleRegister)
		r.Post("/login", h.Auth.HandleLogin)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.Posts.HandleList)
		r.Post("/", h.Posts.HandleCreate)
		r.Get("/{id}", h.Posts.HandleGet)
		r.Put("/{id}", h.Posts.HandleUpdate)
		r.Delete("/{id}", h.Posts.HandleDelete)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.Users.HandleList)
		r.Get("/{id}", h.Users.HandleGet)
		r.Delete("/{id}", h.Users.HandleDelete)
	})

	r.Get("/routes/public", h.Routes.HandleListPublic)

	// Protected routes (require valid bearer token)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokens, log))

		r.Route("/routes", func(r chi.Router) {
			r.Get("/", h.Routes.HandleList)
			r.Post("/", h.Routes.HandleCreate)
			r.Get("/user/{user_id}", h.Routes.HandleListByUser)
			r.Get("/{id}", h.Routes.HandleGet)
			r.Put("/{id}", h.Routes.HandleUpdate)
			r.Delete("/{id}", h.Routes.HandleDelete)
			r.Post("/{id}/score", h.Routes.HandleSubmitScore)
		})

		r.Route("/challenges", func(r chi.Router) {
			r.Post("/", h.Challenges.HandleCreate)
			r.Get("/available", h.Challenges.HandleAvailable)
			r.Get("/{id}", h.Challenges.HandleGet)
			r.Post("/{id}/accept", h.Challenges.HandleAccept)
			r.Post("/{id}/complete", h.Challenges.HandleComplete)
		})

		r.Route("/leaderboard", func(r chi.Router) {
			r.Get("/route/{route_id}", h.Leaderboard.HandleRoute)
			r.Get("/global/speed", h.Leaderboard.HandleGlobalSpeed)
		})

		r.Route("/friends", func(r chi.Router) {
			r.Get("/", h.Friends.HandleList)
			r.Post("/add/{friend_id}", h.Friends.HandleAdd)
			r.Put("/accept/{friendship_id}", h.Friends.HandleAccept)
			r.Put("/reject/{friendship_id}", h.Friends.HandleReject)
			r.Get("/pending", h.Friends.HandlePending)
		})

		r.Route("/sensor-data", func(r chi.Router) {
			r.Post("/bulk", h.SensorData.HandleBulkUpload)
			r.Post("/score/{score_id}", h.SensorData.HandleUpload)
			r.Get("/score/{score_id}", h.SensorData.HandleGetByScore)
		})
	})

	return r
}
