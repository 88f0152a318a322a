package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/salesvisit/visit-service/internal/api"
	"github.com/salesvisit/visit-service/internal/api/handler"
	"github.com/salesvisit/visit-service/internal/middleware"
	"github.com/salesvisit/visit-service/internal/models"
	"github.com/salesvisit/visit-service/internal/service"
	"github.com/salesvisit/visit-service/internal/websockets"
	"go.uber.org/zap"
)

// Services groups the application services the routes call
type Services struct {
	Auth         *service.AuthService
	Users        *service.UserService
	Customers    *service.CustomerService
	Import       *service.ImportService
	VisitPlans   *service.VisitPlanService
	VisitReports *service.VisitReportService
	Dashboard    *service.DashboardService
}

// Options carries the non-service dependencies of the router
type Options struct {
	Responder *api.Responder
	Logger    *zap.Logger
	Hub       *websockets.Hub
	Upgrader  *websocket.Upgrader
	Health    handler.HealthChecker

	// LoginLimit throttles POST /api/auth/login; nil disables it
	LoginLimit func(http.Handler) http.Handler
	Location   *time.Location
	MaxUpload  int64
}

// Router handles HTTP routing
type Router struct {
	mux chi.Router
}

// New creates a new router
func New(svc Services, opts Options) *Router {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Responder == nil {
		opts.Responder = api.NewResponder(opts.Logger, false)
	}

	r := &Router{mux: chi.NewRouter()}
	r.setupRoutes(svc, opts)
	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) setupRoutes(svc Services, opts Options) {
	rs := opts.Responder

	authHandler := handler.NewAuthHandler(svc.Auth, svc.Users, rs)
	userHandler := handler.NewUserHandler(svc.Users, rs)
	profileHandler := handler.NewProfileHandler(svc.Auth, rs)
	customerHandler := handler.NewCustomerHandler(svc.Customers, svc.Import, rs, opts.MaxUpload)
	planHandler := handler.NewVisitPlanHandler(svc.VisitPlans, rs, opts.Location)
	reportHandler := handler.NewVisitReportHandler(svc.VisitReports, rs)
	dashboardHandler := handler.NewDashboardHandler(svc.Dashboard, rs, opts.Location)

	authenticate := middleware.Auth(svc.Auth, rs)
	adminOnly := middleware.RequireRole(rs, models.RoleAdmin)
	managers := middleware.RequireRole(rs, models.RoleAdmin, models.RoleManager)

	r.mux.Use(middleware.RequestID)
	r.mux.Use(middleware.Logger(opts.Logger))

	r.mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		rs.Error(w, req, api.NotFound("Route"))
	})
	r.mux.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		rs.JSON(w, http.StatusMethodNotAllowed, api.Envelope{Success: false, Message: "Method not allowed"})
	})

	if opts.Health != nil {
		r.mux.Method(http.MethodGet, "/health", handler.NewHealthHandler(opts.Health, rs))
	}
	if opts.Hub != nil && opts.Upgrader != nil {
		r.mux.With(middleware.WebSocketAuth(svc.Auth, rs)).Method(http.MethodGet, "/ws",
			handler.NewWebSocketHandler(opts.Hub, opts.Upgrader, rs, opts.Logger))
	}

	r.mux.Route("/api", func(ar chi.Router) {
		// Public routes
		if opts.LoginLimit != nil {
			ar.With(opts.LoginLimit).Post("/auth/login", authHandler.Login)
		} else {
			ar.Post("/auth/login", authHandler.Login)
		}

		// Protected routes
		ar.Group(func(pr chi.Router) {
			pr.Use(authenticate)

			pr.Get("/auth/me", authHandler.Me)
			pr.With(adminOnly).Post("/auth/register", authHandler.Register)

			pr.Route("/users", func(u chi.Router) {
				u.Get("/", userHandler.List)
				u.With(managers).Get("/subordinates", userHandler.Subordinates)
				u.Get("/{id}", userHandler.Get)
				u.With(adminOnly).Post("/", userHandler.Create)
				u.With(adminOnly).Put("/{id}", userHandler.Update)
				u.With(adminOnly).Delete("/{id}", userHandler.Delete)
			})

			pr.Put("/profile", profileHandler.Update)
			pr.Put("/profile/password", profileHandler.ChangePassword)

			pr.Route("/customers", func(c chi.Router) {
				c.Get("/", customerHandler.List)
				c.Post("/", customerHandler.Create)
				c.With(adminOnly).Post("/import", customerHandler.Import)
				c.Get("/{id}", customerHandler.Get)
				c.Put("/{id}", customerHandler.Update)
				c.Delete("/{id}", customerHandler.Delete)
			})

			pr.Route("/visit-plans", func(p chi.Router) {
				p.Get("/", planHandler.List)
				p.Post("/", planHandler.Create)
				p.Get("/{id}", planHandler.Get)
				p.Put("/{id}", planHandler.Update)
				p.Delete("/{id}", planHandler.Delete)
			})

			pr.Route("/visit-reports", func(vr chi.Router) {
				vr.Get("/", reportHandler.List)
				vr.Post("/", reportHandler.Create)
				vr.Get("/{id}", reportHandler.Get)
				vr.Put("/{id}", reportHandler.Update)
				vr.With(adminOnly).Delete("/{id}", reportHandler.Delete)
			})

			pr.Route("/dashboard", func(d chi.Router) {
				d.Get("/summary", dashboardHandler.Summary)
				d.Get("/statistics", dashboardHandler.Statistics)
				d.Get("/revenue", dashboardHandler.Revenue)
			})
		})
	})
}
