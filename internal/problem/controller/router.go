package controller

import (
	"net/http"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/auth"
	commonmw "github.com/kuntalKnight/cpftw-problems-service/internal/common/http/middleware"
	"github.com/kuntalKnight/cpftw-problems-service/internal/common/ratelimit"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

const (
	APIBasePath      = "/api"
	ProblemsBasePath = "/api/v1/problems"
	HealthPath       = "/api/health"

	DefaultBodyLimit = 10 << 20
)

// RouterConfig describes the HTTP surface.
type RouterConfig struct {
	ServiceName string
	Version     string
	BodyLimit   int64
	CORS        commonmw.CORSConfig
	Auth        commonmw.AuthPolicy
}

// RouterDeps are the collaborators the router wires into middleware and routes.
// Limiter and Authenticator may be nil.
type RouterDeps struct {
	Problems      *ProblemController
	Limiter       ratelimit.Limiter
	Authenticator auth.Authenticator
	Logger        *logger.Logger
}

// NewRouter builds the gin engine with middleware in this order:
// trace, recovery, request log, CORS, rate limit, body limit.
// Writes additionally pass through the auth middleware.
func NewRouter(cfg RouterConfig, deps RouterDeps) *gin.Engine {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "cpftw problems service"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.BodyLimit == 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}

	router := gin.New()
	router.Use(commonmw.TraceMiddleware())
	router.Use(commonmw.Recovery(deps.Logger))
	router.Use(commonmw.RequestLogger(deps.Logger))
	router.Use(commonmw.CORSMiddleware(cfg.CORS))
	router.Use(commonmw.RateLimitMiddleware(deps.Limiter, deps.Logger))
	router.Use(commonmw.BodyLimit(cfg.BodyLimit))

	router.GET("/", func(c *gin.Context) {
		response.JSON(c, response.NewSuccess(gin.H{
			"service":  cfg.ServiceName,
			"version":  cfg.Version,
			"database": "MongoDB",
			"endpoints": gin.H{
				"api":    APIBasePath,
				"health": HealthPath,
			},
		}, cfg.ServiceName+" is running", http.StatusOK))
	})
	router.GET(APIBasePath, func(c *gin.Context) {
		response.JSON(c, response.NewSuccess(gin.H{
			"version": cfg.Version,
			"endpoints": gin.H{
				"problems": ProblemsBasePath,
				"health":   HealthPath,
			},
		}, cfg.ServiceName+" API", http.StatusOK))
	})
	router.GET(HealthPath, func(c *gin.Context) {
		response.JSON(c, response.NewSuccess(gin.H{"version": cfg.Version}, "API is healthy", http.StatusOK))
	})

	if deps.Problems != nil {
		requireAuth := commonmw.AuthMiddleware(deps.Authenticator, cfg.Auth)
		problems := router.Group(ProblemsBasePath)
		problems.GET("", deps.Problems.List)
		problems.GET("/search", deps.Problems.Search)
		problems.GET("/statistics", deps.Problems.Statistics)
		problems.GET("/:id", deps.Problems.Get)
		problems.POST("", requireAuth, deps.Problems.Create)
		problems.PUT("/:id", requireAuth, deps.Problems.Update)
		problems.DELETE("/:id", requireAuth, deps.Problems.Delete)
		problems.POST("/:id/submissions", requireAuth, deps.Problems.RecordSubmission)
	}

	router.NoRoute(func(c *gin.Context) {
		env := response.NewFailure(http.StatusNotFound, "NOT_FOUND", "Route not found")
		env.RequestedURL = c.Request.URL.RequestURI()
		response.JSON(c, env)
	})
	return router
}
