package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/guruhub/internal/cache"
	"github.com/geocoder89/guruhub/internal/config"
	"github.com/geocoder89/guruhub/internal/domain/user"
	"github.com/geocoder89/guruhub/internal/http/handlers"
	"github.com/geocoder89/guruhub/internal/http/middlewares"
	"github.com/geocoder89/guruhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "guruhub-api"

// GurusStore is the gurus repository plus the era usage count categories rely on.
type GurusStore interface {
	handlers.GurusRepo
	handlers.EraUsage
}

type Deps struct {
	Config config.Config

	Auth       handlers.AuthService
	Tokens     middlewares.TokenVerifier
	Categories handlers.CategoriesRepo
	Gurus      GurusStore
	Cache      cache.Store

	// Optional. Nil Prom disables metrics, nil Gatherer hides /metrics.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   map[string]handlers.Check
	Tracing  bool

	// ShuttingDown makes /readyz report 503 once the server starts draining.
	ShuttingDown func() bool
}

func NewRouter(log *slog.Logger, deps Deps) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	if deps.Tracing {
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Config.CORSOrigins))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	if deps.Config.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(deps.Config.MaxBodyBytes))
	}

	// health
	h := handlers.NewHealthHandler(deps.Checks, deps.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	var rejections middlewares.RejectionObserver
	if deps.Prom != nil {
		rejections = deps.Prom
	}
	authMW := middlewares.NewAuthMiddleware(deps.Tokens, log, rejections)

	store := deps.Cache
	if store == nil {
		store = cache.New(deps.Config.CacheTTL())
	}

	// auth, under both the new and the legacy prefix
	authHandler := handlers.NewAuthHandler(deps.Auth).WithTimeout(deps.Config.RequestTimeout())

	loginLimit := deps.Config.LoginRateLimit
	if loginLimit <= 0 {
		loginLimit = 10
	}
	loginLimiter := middlewares.NewRateLimiter(loginLimit, time.Minute)

	for _, prefix := range []string{"/auth", "/api/users"} {
		g := r.Group(prefix)
		g.POST("/register", middlewares.RequireJSON(), authHandler.Register)
		g.POST("/login", middlewares.RequireJSON(), loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
		g.GET("/profile", authMW.Authenticate(), authMW.Authorize(user.RoleUser), authHandler.Profile)
	}

	// content: public reads, admin writes
	categoriesHandler := handlers.NewCategoriesHandler(deps.Categories, deps.Gurus, store).WithTimeout(deps.Config.RequestTimeout())
	gurusHandler := handlers.NewGurusHandler(deps.Gurus, store).WithTimeout(deps.Config.RequestTimeout())

	api := r.Group("/api")

	api.GET("/categories", categoriesHandler.ListCategories)
	api.GET("/categories/:id", categoriesHandler.GetCategoryByID)
	api.GET("/gurus", gurusHandler.ListGurus)
	api.GET("/gurus/:id", gurusHandler.GetGuruByID)

	admin := api.Group("")
	admin.Use(authMW.RequireAdmin()...)
	admin.Use(middlewares.RequireJSON())

	writeLimit := deps.Config.AdminWriteLimit
	if writeLimit <= 0 {
		writeLimit = 60
	}
	// keyed per admin account
	admin.Use(middlewares.NewRateLimiter(writeLimit, time.Minute).RateLimiterMiddleware(middlewares.KeyByUserOrIP))
	{
		admin.POST("/categories", categoriesHandler.CreateCategory)
		admin.PUT("/categories/:id", categoriesHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoriesHandler.DeleteCategory)

		admin.POST("/gurus", gurusHandler.CreateGuru)
		admin.PUT("/gurus/:id", gurusHandler.UpdateGuru)
		admin.DELETE("/gurus/:id", gurusHandler.DeleteGuru)
	}

	return r
}
