package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ai-search-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	redis *redis.Client
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{redis: redisClient}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// Ready 就绪检查接口。缓存是 fail-open 的性能优化而非正确性依赖，
// Redis 不可用只降级不摘流量。
// @Summary 就绪检查
// @Description 检查服务是否可以接收流量
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"redis": {Status: "unknown"},
	}
	status := "ok"

	if h == nil || h.redis == nil {
		checks["redis"].Status = "missing"
		checks["redis"].Error = "redis client not configured"
		status = "degraded"
	} else {
		start := time.Now()
		err := h.redis.HealthCheck(ctx)
		checks["redis"].LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			checks["redis"].Status = "degraded"
			checks["redis"].Error = err.Error()
			status = "degraded"
		} else {
			checks["redis"].Status = "ok"
		}
	}

	c.JSON(http.StatusOK, readinessResponse{
		Status: status,
		Checks: checks,
	})
}

// Live 存活检查接口
// @Summary 存活检查
// @Description 检查服务是否存活
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
