package routes

import (
	"github.com/ffarena/tournament-engine/handlers"
	"github.com/ffarena/tournament-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes wires the HTTP surface. Tournament reads and the event feed
// are public; registration requires an authenticated player; everything that
// mutates a tournament requires the operator role.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	registrationHandler *handlers.RegistrationHandler,
	dashboardHandler *handlers.DashboardHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	router.Post("/auth/login", authHandler.Login)
	router.Get("/ws", webSocketHandler.Subscribe)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{id}", tournamentHandler.Get)

		// Player self-registration
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(middleware.RolePlayer, middleware.RoleOperator))
			r.Post("/{id}/register", registrationHandler.Register)
			r.Delete("/{id}/register", registrationHandler.Withdraw)
		})

		// Operator-only mutations
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.Authorize(middleware.RoleOperator))
			r.Post("/", tournamentHandler.Create)
			r.Patch("/{id}", tournamentHandler.Update)
			r.Delete("/{id}", tournamentHandler.Delete)
			r.Post("/{id}/start", tournamentHandler.Start)
			r.Post("/{id}/results", tournamentHandler.SubmitResults)
			r.Post("/{id}/banner", tournamentHandler.UploadBanner)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(middleware.RoleOperator))
		r.Get("/dashboard", dashboardHandler.Stats)
	})
}
