package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/user-manager/internal/api/handlers"
	"github.com/isdelr/user-manager/internal/auth"
	"github.com/isdelr/user-manager/internal/logger"
	"github.com/isdelr/user-manager/internal/services"
	"github.com/isdelr/user-manager/internal/view"
	"github.com/isdelr/user-manager/internal/websocket"
)

// Dependencies groups what the router wires into handlers.
type Dependencies struct {
	Gate           *auth.Gate
	Authenticator  handlers.Authenticator
	UserService    services.UserServiceProvider
	EventService   services.EventServiceProvider
	Hub            *websocket.Hub
	DB             handlers.Pinger
	Renderer       view.Renderer
	AllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(d.UserService, d.Gate, d.Renderer)
	authHandler := handlers.NewAuthHandler(d.Authenticator, d.Gate, d.Renderer)
	eventHandler := handlers.NewEventHandler(d.EventService)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, d.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler(d.DB)

	r.Get("/healthz", healthHandler.Check)

	r.Group(func(r chi.Router) {
		r.Use(d.Gate.Load)

		r.Get("/", userHandler.List)
		r.Get("/index", userHandler.List)

		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Get("/logout", authHandler.Logout)

		// Everything that changes or exposes data needs a session.
		r.Group(func(r chi.Router) {
			r.Use(d.Gate.RequireSession)

			r.Get("/add", userHandler.AddForm)
			r.Post("/add", userHandler.Add)
			r.Get("/delete", userHandler.Delete)
			r.Post("/delete", userHandler.Delete)

			r.Get("/api/events", eventHandler.GetRecent)
			r.Get("/ws", wsHandler.Serve)
		})
	})

	return r
}
