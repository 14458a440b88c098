package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	// 系统端点
	r.engine.GET("/health", r.health.Health)
	r.engine.GET("/ready", r.health.Ready)
	r.engine.GET("/live", r.health.Live)

	// Prometheus 指标端点
	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API v1 路由组
	v1 := r.engine.Group("/v1")
	{
		search := v1.Group("/search")
		{
			search.POST("", r.search.Search)
			search.POST("/complex", r.search.ComplexSearch)
			search.GET("/stream", r.search.Stream)
			search.GET("/sources", r.search.Sources)
			search.GET("/suggestions", r.search.Suggestions)
		}

		cache := v1.Group("/cache")
		{
			cache.GET("/stats", r.cache.Stats)
			cache.DELETE("", r.cache.Clear)
			cache.DELETE("/entry", r.cache.Delete)
		}
	}
}
