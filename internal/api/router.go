package api

import (
	"fmt"

	"ecovendix/internal/metrics"
	"ecovendix/internal/middleware"
	"ecovendix/internal/repository"
	"ecovendix/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Store            Pinger
	Redis            redis.Cmdable
	Users            repository.UserRepository
	Sessions         service.SessionService
	Accounts         service.AccountService
	Purchases        service.PurchaseService
	Admin            service.AdminService
	Cookies          *CookieHelper
	LoginLimiter     *middleware.RateLimiter
	AllowedOrigins   []string
	CredentialLength int
	TrustedProxies   []string
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	tmpl, err := LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	r.SetHTMLTemplate(tmpl)
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.SessionMiddleware(deps.Sessions),
		middleware.CSRF(middleware.CSRFConfig{AllowedOrigins: deps.AllowedOrigins}),
	)

	pages := AuthPages{CredentialLength: deps.CredentialLength}

	// Public routes
	r.GET("/", RootHandler())
	r.GET("/login", FormPageHandler(pages, "login"))
	r.GET("/signup", FormPageHandler(pages, "signup"))
	r.GET("/logout", LogoutHandler(deps.Sessions, deps.Cookies))
	r.GET("/health", HealthHandler(deps.Store, deps.Redis))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.StaticFS("/static", StaticFiles())

	// Credential endpoints are throttled per client
	auth := r.Group("/api")
	if deps.LoginLimiter != nil {
		auth.Use(deps.LoginLimiter.Handler())
	}
	auth.POST("/login", LoginHandler(deps.Sessions, deps.Cookies, pages))
	auth.POST("/signup", SignupHandler(deps.Accounts, deps.Sessions, deps.Cookies, pages))

	// Student routes
	student := r.Group("/", middleware.AuthRequired())
	student.GET("/dashboard", DashboardHandler(deps.Accounts, deps.Cookies))
	student.POST("/api/purchase", PurchaseHandler(deps.Purchases))

	// Admin routes
	admin := r.Group("/", middleware.AdminOnlyMiddleware(deps.Users))
	admin.GET("/admin", AdminPanelHandler(deps.Admin))
	admin.POST("/api/admin/delete-user", DeleteUserHandler(deps.Admin))
	admin.POST("/api/admin/update-points", UpdatePointsHandler(deps.Admin))
	admin.POST("/api/admin/credit-points", CreditPointsHandler(deps.Admin))
	admin.POST("/api/admin/delete-all-users", DeleteAllUsersHandler(deps.Admin))
	admin.POST("/api/admin/update-stock", UpdateStockHandler(deps.Admin))

	return r, nil
}
