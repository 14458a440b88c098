package dto

import (
	domain "ai-search-api/internal/domain/search"
)

// SearchRequest 搜索请求
type SearchRequest struct {
	// Query 搜索问题
	Query string `json:"query" binding:"required,min=1,max=500"`
	// SkipCache 跳过缓存读取
	SkipCache bool `json:"skip_cache"`
	// IncludeContext 是否返回上下文条目，缺省为 true
	IncludeContext *bool `json:"include_context"`
}

// SearchResponse 搜索响应
type SearchResponse struct {
	Question   string               `json:"question"`
	Answer     string               `json:"answer"`
	Confidence float64              `json:"confidence"`
	Sources    []string             `json:"sources"`
	Context    []domain.ContextItem `json:"context,omitempty"`
	SubQueries []string             `json:"sub_queries,omitempty"`
	Cached     bool                 `json:"cached"`
}

// NewSearchResponse 由领域结果构造响应
func NewSearchResponse(result *domain.Result) SearchResponse {
	return SearchResponse{
		Question:   result.Question,
		Answer:     result.Answer,
		Confidence: result.Confidence,
		Sources:    result.Sources,
		Context:    result.Context,
		SubQueries: result.SubQueries,
		Cached:     result.Cached,
	}
}

// SourcesResponse 来源查询响应
type SourcesResponse struct {
	Query      string              `json:"query"`
	Sources    []domain.SourceItem `json:"sources"`
	TotalFound int                 `json:"total_found"`
}

// SuggestionsResponse 搜索建议响应
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// CacheStatsResponse 缓存统计响应
type CacheStatsResponse struct {
	domain.CacheStats
}

// CacheClearResponse 缓存清空响应
type CacheClearResponse struct {
	Cleared int `json:"cleared"`
}

// CacheDeleteResponse 缓存删除响应
type CacheDeleteResponse struct {
	Deleted bool `json:"deleted"`
}
