package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Erbium-Sanbercode/22-service-observability/docs" // register generated Swagger spec
)

// Router wraps a configured Gin engine and exposes it as an http.Handler.
type Router struct {
	engine *gin.Engine
	ready  *atomic.Bool
}

// NewRouter constructs a Router with the full middleware chain and all routes
// registered. Middleware order:
//  1. Recovery: panic → 500
//  2. Tracing: trace context per request
//  3. RequestLogger: structured request/response logging
//
// The router starts not ready; the role server flips it with SetReady.
func NewRouter(logger *slog.Logger, info Info, health healthService) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(Recovery(logger))
	engine.Use(Tracing(info.Service))
	engine.Use(RequestLogger(logger))

	ready := &atomic.Bool{}
	h := &Handler{health: health, info: info, ready: ready}

	v1 := engine.Group("/api/v1")
	v1.GET("/info", h.Info)

	engine.GET("/health", h.Health)
	engine.GET("/health/deep", h.DeepHealth)
	engine.GET("/ready", h.Ready)

	engine.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/api-docs/index.html")
	})
	engine.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return &Router{engine: engine, ready: ready}
}

// Handler returns the underlying http.Handler for use with net/http servers.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// SetReady controls the /ready response.
func (r *Router) SetReady(ready bool) {
	r.ready.Store(ready)
}
