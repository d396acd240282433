package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/akanaz/exitpass-backend-go/internal/config"
	"github.com/akanaz/exitpass-backend-go/internal/handler/http/middleware"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/jwt"
	"github.com/akanaz/exitpass-backend-go/internal/pkg/metrics"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	cfg *config.Config,
	jwtService jwt.Service,
	authHandler AuthHandler,
	departureHandler DepartureHandler,
	delegationHandler DelegationHandler,
	accountHandler AccountHandler,
	notificationHandler NotificationHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "exitpass-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", departureHandler.Create)
				r.Get("/my", departureHandler.ListMine)
				r.Get("/department", departureHandler.ListDepartmentQueue)
				r.Get("/hod", departureHandler.ListDeanQueue)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", departureHandler.Get)
					r.Patch("/", departureHandler.Edit)
					r.Post("/approve", departureHandler.Approve)
					r.Post("/reject", departureHandler.Reject)
					r.Post("/request-info", departureHandler.RequestMoreInfo)
					r.Post("/cancel", departureHandler.Cancel)
				})
			})

			// Delegation management is HOD only; delegated faculty decide
			// requests but never manage delegations.
			r.Route("/delegations", func(r chi.Router) {
				r.Use(middleware.HODOnly)
				r.Post("/", delegationHandler.Grant)
				r.Get("/my", delegationHandler.ListMyDelegations)
				r.Get("/eligible-faculty", delegationHandler.ListEligibleFaculty)
				r.Delete("/{facultyId}", delegationHandler.Revoke)
				r.Patch("/{facultyId}/extend", delegationHandler.Extend)
			})

			// Admin only
			r.Route("/accounts", func(r chi.Router) {
				r.Use(middleware.AdminOnly)
				r.Get("/", accountHandler.List)
				r.Post("/", accountHandler.Create)
				r.Delete("/{id}", accountHandler.Deactivate)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Post("/mark-read", notificationHandler.MarkAsRead)
				r.Post("/mark-all-read", notificationHandler.MarkAllAsRead)
			})
		})
	})
	return r
}
