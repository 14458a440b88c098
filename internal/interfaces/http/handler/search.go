// Package handler 提供 HTTP 请求处理器
package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	appsearch "ai-search-api/internal/application/search"
	domain "ai-search-api/internal/domain/search"
	"ai-search-api/internal/interfaces/http/dto"
)

// SearchHandler 搜索处理器
type SearchHandler struct {
	svc *appsearch.Service
}

// NewSearchHandler 创建搜索处理器
func NewSearchHandler(svc *appsearch.Service) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search 搜索并合成回答
// @Summary 搜索并合成回答
// @Description 检索网络结果并由 LLM 合成带引用的回答
// @Tags Search
// @Accept json
// @Produce json
// @Param body body dto.SearchRequest true "搜索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/search [post]
func (h *SearchHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.Search(c.Request.Context(), req.Query, searchOptions(req))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.NewSearchResponse(result))
}

// ComplexSearch 带查询分解的搜索
// @Summary 带查询分解的搜索
// @Description 复合问题自动分解为子查询检索后合成综合回答
// @Tags Search
// @Accept json
// @Produce json
// @Param body body dto.SearchRequest true "搜索请求"
// @Success 200 {object} dto.Response[dto.SearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/search/complex [post]
func (h *SearchHandler) ComplexSearch(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.ComplexSearch(c.Request.Context(), req.Query, searchOptions(req))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.NewSearchResponse(result))
}

// Stream 流式搜索
// @Summary 流式搜索
// @Description 通过 SSE 实时推送检索进度与回答 token
// @Tags Search
// @Produce text/event-stream
// @Param q query string true "搜索问题"
// @Param skip_cache query bool false "跳过缓存"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/search/stream [get]
func (h *SearchHandler) Stream(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		dto.BadRequest(c, "query parameter 'q' is required")
		return
	}
	skipCache, _ := strconv.ParseBool(c.DefaultQuery("skip_cache", "false"))

	events, err := h.svc.SearchStream(c.Request.Context(), query, appsearch.Options{
		SkipCache:      skipCache,
		IncludeContext: true,
	})
	if err != nil {
		dto.FromError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			writeStreamEvent(c, event)
			// done 和 error 是终结事件
			return event.Type != domain.EventDone && event.Type != domain.EventError

		case <-c.Request.Context().Done():
			return false
		}
	})
}

// writeStreamEvent 把流水线事件编码为 SSE 事件
func writeStreamEvent(c *gin.Context, event domain.StreamEvent) {
	switch event.Type {
	case domain.EventStatus:
		c.SSEvent(string(event.Type), gin.H{"message": event.Message})
	case domain.EventToken:
		c.SSEvent(string(event.Type), gin.H{"content": event.Content})
	case domain.EventDone:
		c.SSEvent(string(event.Type), dto.NewSearchResponse(event.Result))
	case domain.EventError:
		c.SSEvent(string(event.Type), gin.H{"message": event.Message})
	}
}

// Sources 只检索不合成
// @Summary 查询原始来源
// @Description 返回检索到的原始来源列表，不经过 LLM 合成
// @Tags Search
// @Produce json
// @Param q query string true "搜索问题"
// @Param limit query int false "返回条数上限"
// @Success 200 {object} dto.Response[dto.SourcesResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/search/sources [get]
func (h *SearchHandler) Sources(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		dto.BadRequest(c, "query parameter 'q' is required")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	list, err := h.svc.Sources(c.Request.Context(), query, limit)
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.SourcesResponse{
		Query:      list.Query,
		Sources:    list.Sources,
		TotalFound: list.TotalFound,
	})
}

// Suggestions 搜索建议
// @Summary 搜索建议
// @Description 为用户生成搜索建议；带历史时基于历史个性化
// @Tags Search
// @Produce json
// @Param history query []string false "历史查询，可重复传递"
// @Success 200 {object} dto.Response[dto.SuggestionsResponse]
// @Router /v1/search/suggestions [get]
func (h *SearchHandler) Suggestions(c *gin.Context) {
	history := c.QueryArray("history")
	suggestions := h.svc.Suggestions(c.Request.Context(), history)
	dto.Success(c, dto.SuggestionsResponse{Suggestions: suggestions})
}

// searchOptions 由请求体组装调用选项；include_context 缺省为 true
func searchOptions(req dto.SearchRequest) appsearch.Options {
	includeContext := true
	if req.IncludeContext != nil {
		includeContext = *req.IncludeContext
	}
	return appsearch.Options{
		SkipCache:      req.SkipCache,
		IncludeContext: includeContext,
	}
}
