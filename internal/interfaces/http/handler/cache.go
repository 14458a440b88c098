package handler

import (
	"github.com/gin-gonic/gin"

	domain "ai-search-api/internal/domain/search"
	"ai-search-api/internal/interfaces/http/dto"
)

// CacheHandler 缓存管理处理器
type CacheHandler struct {
	cache domain.AnswerCache
}

// NewCacheHandler 创建缓存管理处理器
func NewCacheHandler(cache domain.AnswerCache) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// Stats 缓存统计
// @Summary 缓存统计
// @Description 返回缓存连接状态、键数量与内存占用
// @Tags Cache
// @Produce json
// @Success 200 {object} dto.Response[dto.CacheStatsResponse]
// @Router /v1/cache/stats [get]
func (h *CacheHandler) Stats(c *gin.Context) {
	stats := h.cache.Stats(c.Request.Context())
	dto.Success(c, dto.CacheStatsResponse{CacheStats: stats})
}

// Clear 清空缓存
// @Summary 清空缓存
// @Description 删除命名空间下全部缓存条目，返回删除数量
// @Tags Cache
// @Produce json
// @Success 200 {object} dto.Response[dto.CacheClearResponse]
// @Router /v1/cache [delete]
func (h *CacheHandler) Clear(c *gin.Context) {
	cleared := h.cache.ClearAll(c.Request.Context())
	dto.Success(c, dto.CacheClearResponse{Cleared: cleared})
}

// Delete 删除单条缓存
// @Summary 删除单条缓存
// @Description 按查询删除对应的缓存条目
// @Tags Cache
// @Produce json
// @Param q query string true "原始查询"
// @Success 200 {object} dto.Response[dto.CacheDeleteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/cache/entry [delete]
func (h *CacheHandler) Delete(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		dto.BadRequest(c, "query parameter 'q' is required")
		return
	}
	deleted := h.cache.Delete(c.Request.Context(), query)
	dto.Success(c, dto.CacheDeleteResponse{Deleted: deleted})
}
