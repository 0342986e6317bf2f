package http

import (
	"net/http"
	"time"

	"staffhub_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Module is implemented by every domain module that exposes HTTP routes.
type Module interface {
	// Name returns the module identifier, used for logging.
	Name() string
	// RegisterRoutes mounts the module's routes on the router context.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the route groups modules mount themselves on.
type RouterContext struct {
	// Public routes require no authentication (health, readiness).
	Public *gin.RouterGroup
	// Protected routes sit behind JWT authentication.
	Protected *gin.RouterGroup
}

// NewRouter assembles the gin engine: global middleware, health endpoint,
// and every registered module's routes.
func NewRouter(app *App) *gin.Engine {
	if app.Config.GetCORSAllowAll() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpkit.RequestLogger(app.Logger))
	router.Use(httpkit.SecurityHeaders())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if app.Config.GetCORSAllowAll() {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = app.Config.GetCORSOrigins()
	}
	router.Use(cors.New(corsConfig))

	limiter := httpkit.NewIPRateLimiter(rate.Limit(50), 100, app.Logger)
	router.Use(limiter.RateLimit())

	public := router.Group("/api/v1")
	public.GET("/health", func(c *gin.Context) {
		if err := app.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/api/v1")
	protected.Use(httpkit.Auth(app.Config))

	ctx := &RouterContext{Public: public, Protected: protected}
	for _, m := range app.Modules {
		m.RegisterRoutes(ctx)
		app.Logger.Info("module routes registered", "module", m.Name())
	}

	return router
}
