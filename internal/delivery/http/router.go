package http

import (
	"log/slog"
	"net/http"

	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps holds the controllers and cross-cutting collaborators the router wires together.
type RouterDeps struct {
	Logger         *slog.Logger
	TokenVerifier  domain.TokenVerifier
	RSVPLimiter    middleware.RateLimiter
	AllowedOrigins []string

	Events *controllers.EventController
	RSVPs  *controllers.RSVPController
	Users  *controllers.UserController
	Auth   *controllers.AuthController
	AI     *controllers.AIController
}

// NewRouter initializes the HTTP router with all application routes under /api.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	authed := middleware.RequireAuth(d.TokenVerifier, d.Logger)
	limited := middleware.RateLimit(d.RSVPLimiter, "rsvp", d.Logger)
	protect := func(h http.HandlerFunc) http.Handler { return authed(h) }

	mux.HandleFunc("GET /api/health", controllers.Health)

	// Auth
	mux.HandleFunc("POST /api/auth/register", d.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", d.Auth.Login)

	// Events
	mux.HandleFunc("GET /api/events", d.Events.ListEvents)
	mux.Handle("POST /api/events", protect(d.Events.CreateEvent))
	mux.HandleFunc("GET /api/events/{eventID}", d.Events.GetEvent)
	mux.Handle("PATCH /api/events/{eventID}", protect(d.Events.UpdateEvent))
	mux.Handle("DELETE /api/events/{eventID}", protect(d.Events.DeleteEvent))

	// RSVP; the limiter runs after auth so buckets are per user.
	mux.Handle("POST /api/events/{eventID}/rsvp", authed(limited(http.HandlerFunc(d.RSVPs.JoinEvent))))
	mux.Handle("DELETE /api/events/{eventID}/rsvp", authed(limited(http.HandlerFunc(d.RSVPs.LeaveEvent))))

	// Current user
	mux.Handle("GET /api/users/me/attending", protect(d.Users.ListAttending))
	mux.Handle("GET /api/users/me/attending-events", protect(d.Users.ListAttending))
	mux.Handle("GET /api/users/me/created-events", protect(d.Users.ListCreated))

	// AI
	mux.HandleFunc("POST /api/ai/enhance-description", d.AI.EnhanceDescription)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	mux.HandleFunc("/", helpers.NotFound)

	var h http.Handler = mux
	h = middleware.CORS(d.AllowedOrigins, h)
	h = middleware.LoggingMiddleware(d.Logger, h)
	h = middleware.Recover(d.Logger, h)
	return h
}
