package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/household-backend/internal/config"
	"github.com/ignatzorin/household-backend/internal/domain/valueobject"
	"github.com/ignatzorin/household-backend/internal/http/handlers"
	"github.com/ignatzorin/household-backend/internal/http/middleware"
)

// Handlers - все HTTP хэндлеры приложения.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Catalog   *handlers.CatalogHandler
	Admin     *handlers.AdminHandler
	Requests  *handlers.RequestHandler
	Dashboard *handlers.DashboardHandler
	Search    *handlers.SearchHandler
	Health    *handlers.HealthHandler
	WS        *handlers.WSHandler
}

func SetupRouter(
	cfg *config.Config,
	h Handlers,
	tokens middleware.AccessTokenParser,
	limitStore limiter.Store,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	api.GET("/ws", middleware.QueryTokenMiddleware(tokens), h.WS.Handle)

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(limitStore, cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register/customer", h.Auth.RegisterCustomer)
		authGroup.POST("/register/professional", h.Auth.RegisterProfessional)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	api.GET("/services", h.Catalog.List)
	api.GET("/services/:id", middleware.UUIDValidator("id"), h.Catalog.Get)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/me", h.Auth.Me)
		protected.GET("/requests/:id", middleware.UUIDValidator("id"), h.Requests.Get)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(valueobject.RoleAdmin))
	{
		admin.GET("/dashboard", h.Dashboard.Admin)
		admin.GET("/summary", h.Dashboard.AdminSummary)
		admin.GET("/search", h.Search.Search)
		admin.GET("/requests", h.Requests.List)

		admin.POST("/services", h.Catalog.Create)
		admin.PUT("/services/:id", middleware.UUIDValidator("id"), h.Catalog.Update)
		admin.DELETE("/services/:id", middleware.UUIDValidator("id"), h.Catalog.Delete)

		admin.GET("/professionals/:id", middleware.UUIDValidator("id"), h.Admin.GetProfessional)
		admin.GET("/professionals/:id/document", middleware.UUIDValidator("id"), h.Admin.Document)
		admin.POST("/professionals/:id/approve", middleware.UUIDValidator("id"), h.Admin.Approve)
		admin.POST("/professionals/:id/reject", middleware.UUIDValidator("id"), h.Admin.Reject)

		admin.POST("/users/:id/block", middleware.UUIDValidator("id"), h.Admin.Block)
		admin.POST("/users/:id/unblock", middleware.UUIDValidator("id"), h.Admin.Unblock)
	}

	customer := protected.Group("/customer")
	customer.Use(middleware.RequireRole(valueobject.RoleCustomer))
	{
		customer.GET("/dashboard", h.Dashboard.Customer)
		customer.GET("/summary", h.Dashboard.CustomerSummary)
		customer.GET("/search", h.Search.Search)
		customer.GET("/professionals/:id", middleware.UUIDValidator("id"), h.Dashboard.ProfessionalProfile)

		customer.GET("/requests", h.Requests.List)
		customer.POST("/requests", h.Requests.CreatePrivate)
		customer.POST("/requests/open", h.Requests.CreateOpen)
		customer.PUT("/requests/:id", middleware.UUIDValidator("id"), h.Requests.Edit)
		customer.DELETE("/requests/:id", middleware.UUIDValidator("id"), h.Requests.Delete)
		customer.POST("/requests/:id/close", middleware.UUIDValidator("id"), h.Requests.Close)

		customer.GET("/bids", h.Requests.Bids)
		customer.POST("/bids/:id/accept", middleware.UUIDValidator("id"), h.Requests.AcceptBid)
		customer.POST("/bids/:id/reject", middleware.UUIDValidator("id"), h.Requests.RejectBid)
	}

	professional := protected.Group("/professional")
	professional.Use(middleware.RequireRole(valueobject.RoleProfessional))
	{
		professional.GET("/dashboard", h.Dashboard.Professional)
		professional.GET("/summary", h.Dashboard.ProfessionalSummary)
		professional.GET("/search", h.Search.Search)
		professional.GET("/document", h.Admin.OwnDocument)

		professional.GET("/open-requests", h.Requests.OpenRequests)
		professional.POST("/open-requests/:id/bid", middleware.UUIDValidator("id"), h.Requests.SubmitBid)
		professional.POST("/requests/:id/accept", middleware.UUIDValidator("id"), h.Requests.Accept)
		professional.POST("/requests/:id/reject", middleware.UUIDValidator("id"), h.Requests.Reject)
	}

	return r
}
