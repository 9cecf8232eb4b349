package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "meetupbot/docs"
	"meetupbot/internal/delivery/http/controllers"
	"meetupbot/internal/delivery/http/middleware"
	"meetupbot/internal/domain"
)

// RouterConfig carries the controllers and settings of the HTTP API.
type RouterConfig struct {
	Logger         *slog.Logger
	Verifier       domain.TokenVerifier
	AllowedOrigins []string
	Health         *controllers.HealthController
	Dashboard      *controllers.DashboardController
	Webhooks       *controllers.WebhookController
}

// NewRouter initializes the HTTP router with all application routes, wrapped in
// CORS and request logging.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	organizer := middleware.RequireRole(cfg.Verifier, domain.RoleOrganizer, cfg.Logger)

	mux.HandleFunc("GET /health", cfg.Health.Health)

	// Payment provider callbacks
	mux.HandleFunc("POST /webhooks/yookassa", cfg.Webhooks.YooKassa)

	// Organizer dashboard
	mux.HandleFunc("GET /events/active/program", organizer(cfg.Dashboard.ActiveProgram))
	mux.HandleFunc("GET /events/active/donations", organizer(cfg.Dashboard.ActiveDonations))
	mux.HandleFunc("POST /events/{eventID}/activate", organizer(cfg.Dashboard.ActivateEvent))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(cfg.Logger, middleware.CORS(cfg.AllowedOrigins, mux))
}
