package search

import "context"

// Retriever 检索端口。实现必须在传输失败时返回空结果集而不是错误，
// 空结果集是合法的"未找到信息"终态。
type Retriever interface {
	// Retrieve 检索最多 k 条结果；k <= 0 时使用实现默认值。
	Retrieve(ctx context.Context, query string, k int) (RetrievedSet, error)
}

// CacheStats 缓存统计信息
type CacheStats struct {
	Connected  bool   `json:"connected"`
	Enabled    bool   `json:"enabled"`
	KeyCount   int64  `json:"key_count"`
	TTLSeconds int64  `json:"ttl_seconds"`
	MemoryUsed string `json:"memory_used,omitempty"`
}

// AnswerCache 结果缓存端口。所有操作 fail-open：
// 后端不可达时 Get 返回未命中、Set 返回 false，绝不向流水线传播存储错误。
type AnswerCache interface {
	// Get 按规范化查询取缓存；未命中或后端不可用时返回 (nil, false)。
	Get(ctx context.Context, query string) (*Result, bool)
	// Set 写入缓存并设置 TTL；写入失败返回 false。
	Set(ctx context.Context, query string, result *Result) bool
	// Delete 删除单条缓存
	Delete(ctx context.Context, query string) bool
	// ClearAll 按命名空间清空缓存，返回删除的键数量
	ClearAll(ctx context.Context) int
	// Stats 返回缓存统计
	Stats(ctx context.Context) CacheStats
}
