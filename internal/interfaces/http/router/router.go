// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"ai-search-api/internal/config"
	"ai-search-api/internal/interfaces/http/handler"
	"ai-search-api/internal/interfaces/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	cfg    *config.Config

	search *handler.SearchHandler
	cache  *handler.CacheHandler
	health *handler.HealthHandler
}

// New 创建新的路由器
func New(
	cfg *config.Config,
	searchHandler *handler.SearchHandler,
	cacheHandler *handler.CacheHandler,
	healthHandler *handler.HealthHandler,
) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine: gin.New(),
		cfg:    cfg,
		search: searchHandler,
		cache:  cacheHandler,
		health: healthHandler,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}
