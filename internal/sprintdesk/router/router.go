package router

import (
	"log/slog"
	"math"
	"net/http"

	"sprintdesk/internal/sprintdesk/auth"
	"sprintdesk/internal/sprintdesk/handler"
	"sprintdesk/internal/sprintdesk/metrics"
	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/policy"
	"sprintdesk/internal/sprintdesk/repository"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// Options tune the router beyond the handler and policy wiring.
type Options struct {
	// LoginRate is the allowed login attempts per second per client IP; 0 disables the limit.
	LoginRate float64
	Logger    *slog.Logger
}

func RegisterRoutes(e *echo.Echo, h *handler.Handler, engine *policy.Engine, access repository.AccessRepository, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e.Use(handler.RequestIDMiddleware)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
	}))
	e.Use(metrics.Middleware())

	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", metrics.Handler())
	// Authenticates from the query string itself.
	e.GET("/ws", h.GetNotificationStream)

	v1 := e.Group("/api/v1")

	// Public
	login := []echo.MiddlewareFunc{}
	if opts.LoginRate > 0 {
		login = append(login, middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			// Burst rounds up so a rate below one still admits a first attempt.
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:  rate.Limit(opts.LoginRate),
				Burst: max(1, int(math.Ceil(opts.LoginRate))),
			}),
			DenyHandler: func(c echo.Context, _ string, _ error) error {
				return c.JSON(http.StatusTooManyRequests, model.ErrorResponse{
					Error: model.ErrorDetail{Code: "rate_limited", Message: "Too many login attempts"},
				})
			},
		}))
	}
	v1.POST("/auth/login", h.PostLogin, login...)

	// Everything else requires a token and passes the policy table
	api := v1.Group("")
	api.Use(auth.Middleware(h.Tokens, h.Service.Users))
	api.Use(handler.NewRBACMiddleware(engine, access, logger).Middleware())

	// Users
	api.GET("/users", h.GetUsers)
	api.POST("/users", h.PostUser)
	api.GET("/users/me", h.GetMe)
	api.GET("/users/me/tasks", h.GetMyTasks)
	api.GET("/users/:id", h.GetUser)
	api.PUT("/users/:id", h.PutUser)
	api.PUT("/users/:id/password", h.PutUserPassword)
	api.DELETE("/users/:id", h.DeleteUser)

	// Reference data
	registerCatalog(api, "/zones", handler.NewCatalogEndpoints(h, h.Service.Zones))
	registerCatalog(api, "/quartiers", handler.NewCatalogEndpoints(h, h.Service.Quartiers))
	registerCatalog(api, "/node-types", handler.NewCatalogEndpoints(h, h.Service.NodeTypes))
	registerCatalog(api, "/dev-stacks", handler.NewCatalogEndpoints(h, h.Service.DevStacks))
	registerCatalog(api, "/risks", handler.NewCatalogEndpoints(h, h.Service.Risks))

	// Projects
	api.GET("/projects", h.GetProjects)
	api.POST("/projects", h.PostProject)
	api.GET("/projects/:id", h.GetProject)
	api.PUT("/projects/:id", h.PutProject)
	api.DELETE("/projects/:id", h.DeleteProject)
	api.PUT("/projects/:id/lead", h.PutProjectLead)
	api.GET("/projects/:id/members", h.GetProjectMembers)
	api.POST("/projects/:id/members", h.PostProjectMember)
	api.DELETE("/projects/:id/members/:user_id", h.DeleteProjectMember)
	api.GET("/projects/:id/risks", h.GetProjectRisks)
	api.POST("/projects/:id/risks", h.PostProjectRisk)
	api.PUT("/project-risks/:id", h.PutProjectRisk)
	api.DELETE("/project-risks/:id", h.DeleteProjectRisk)

	// Sprints
	api.GET("/projects/:id/sprints", h.GetSprints)
	api.POST("/projects/:id/sprints", h.PostSprint)
	api.GET("/sprints/:id", h.GetSprint)
	api.PUT("/sprints/:id", h.PutSprint)
	api.DELETE("/sprints/:id", h.DeleteSprint)
	api.PUT("/sprints/:id/status", h.PutSprintStatus)
	api.POST("/sprints/:id/extend", h.PostSprintExtend)
	api.PUT("/sprints/:id/lead", h.PutSprintLead)
	api.GET("/sprints/:id/members", h.GetSprintMembers)
	api.POST("/sprints/:id/members", h.PostSprintMember)
	api.DELETE("/sprints/:id/members/:user_id", h.DeleteSprintMember)

	// Tasks
	api.GET("/sprints/:id/tasks", h.GetTasks)
	api.POST("/sprints/:id/tasks", h.PostTask)
	api.GET("/tasks/:id", h.GetTask)
	api.PUT("/tasks/:id", h.PutTask)
	api.DELETE("/tasks/:id", h.DeleteTask)
	api.PUT("/tasks/:id/status", h.PutTaskStatus)
	api.PUT("/tasks/:id/assignee", h.PutTaskAssignee)
	api.POST("/tasks/:id/extend", h.PostTaskExtend)

	// Infrastructure
	api.GET("/projects/:id/nodes", h.GetNodes)
	api.POST("/projects/:id/nodes", h.PostNode)
	api.GET("/nodes/:id", h.GetNode)
	api.PUT("/nodes/:id", h.PutNode)
	api.DELETE("/nodes/:id", h.DeleteNode)
	api.GET("/nodes/:id/infrastructures", h.GetInfrastructures)
	api.POST("/nodes/:id/infrastructures", h.PostInfrastructure)
	api.GET("/infrastructures/:id", h.GetInfrastructure)
	api.PUT("/infrastructures/:id", h.PutInfrastructure)
	api.DELETE("/infrastructures/:id", h.DeleteInfrastructure)
	api.GET("/nodes/:id/deployments", h.GetDeployments)
	api.POST("/nodes/:id/deployments", h.PostDeployment)
	api.GET("/deployments/:id", h.GetDeployment)
	api.PUT("/deployments/:id/status", h.PutDeploymentStatus)
	api.GET("/deployments/:id/history", h.GetDeployHistory)

	// Notifications
	api.GET("/notifications", h.GetNotifications)
	api.GET("/notifications/unread-count", h.GetUnreadCount)
	api.PUT("/notifications/read-all", h.PutNotificationsReadAll)
	api.PUT("/notifications/:id/read", h.PutNotificationRead)
	api.DELETE("/notifications/:id", h.DeleteNotification)

	// Admin
	api.POST("/admin/sweep", h.PostSweep)
}

func registerCatalog(g *echo.Group, prefix string, ep handler.CatalogEndpoints) {
	g.GET(prefix, ep.List)
	g.POST(prefix, ep.Create)
	g.GET(prefix+"/:id", ep.Get)
	g.PUT(prefix+"/:id", ep.Update)
	g.DELETE(prefix+"/:id", ep.Delete)
}
