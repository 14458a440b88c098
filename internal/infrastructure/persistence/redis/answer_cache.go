package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ai-search-api/internal/config"
	"ai-search-api/internal/domain/search"
	"ai-search-api/pkg/logger"
	"ai-search-api/pkg/metrics"
)

var cacheTracer = otel.Tracer("redis.answer_cache")

// AnswerCache 基于 Redis 的搜索结果缓存。
//
// 缓存键 = 前缀 + "query:" + SHA-256(规范化查询) 的前 16 位十六进制，
// 规范化 = 小写 + 去首尾空白，因此命中与大小写、首尾空白无关，
// 且键里不出现原始查询文本。
//
// 所有操作 fail-open：Redis 不可达时按未命中/写入失败处理，
// 缓存只是性能优化，绝不是正确性依赖。
type AnswerCache struct {
	client  store
	prefix  string
	ttl     time.Duration
	enabled bool
}

// store 缓存层对 Redis 客户端的最小依赖
type store interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
	Info(ctx context.Context, section string) (string, error)
}

// NewAnswerCache 创建结果缓存
func NewAnswerCache(client *Client, cfg *config.SearchConfig) *AnswerCache {
	var s store
	if client != nil {
		s = client
	}
	return newAnswerCache(s, cfg)
}

func newAnswerCache(s store, cfg *config.SearchConfig) *AnswerCache {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	prefix := cfg.CachePrefix
	if prefix == "" {
		prefix = "search:"
	}
	return &AnswerCache{
		client:  s,
		prefix:  prefix,
		ttl:     ttl,
		enabled: cfg.CacheEnabled,
	}
}

// Key 从查询派生缓存键
func (c *AnswerCache) Key(query string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	sum := sha256.Sum256([]byte(normalized))
	return c.prefix + "query:" + hex.EncodeToString(sum[:])[:16]
}

// Get 获取缓存的搜索结果
func (c *AnswerCache) Get(ctx context.Context, query string) (*search.Result, bool) {
	if !c.usable() {
		return nil, false
	}

	ctx, span := cacheTracer.Start(ctx, "answer_cache.Get")
	defer span.End()

	key := c.Key(query)
	raw, err := c.client.Get(ctx, key)
	if err != nil {
		if !IsNil(err) {
			logger.Warn(ctx, "cache get failed", "error", err.Error())
		}
		span.SetAttributes(attribute.Bool("cache.hit", false))
		metrics.CacheLookupTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	var result search.Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// 反序列化失败按未命中处理，并清除坏数据
		logger.Warn(ctx, "cache entry corrupted, dropping", "key", key)
		_ = c.client.Del(ctx, key)
		span.SetAttributes(attribute.Bool("cache.hit", false))
		metrics.CacheLookupTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	result.Cached = true
	span.SetAttributes(attribute.Bool("cache.hit", true))
	metrics.CacheLookupTotal.WithLabelValues("hit").Inc()
	return &result, true
}

// Set 写入缓存并设置 TTL
func (c *AnswerCache) Set(ctx context.Context, query string, result *search.Result) bool {
	if !c.usable() || result == nil {
		return false
	}

	ctx, span := cacheTracer.Start(ctx, "answer_cache.Set",
		trace.WithAttributes(attribute.Int64("cache.ttl_ms", c.ttl.Milliseconds())))
	defer span.End()

	bytes, err := json.Marshal(result)
	if err != nil {
		span.RecordError(err)
		return false
	}

	if err := c.client.SetEx(ctx, c.Key(query), bytes, c.ttl); err != nil {
		logger.Warn(ctx, "cache set failed", "error", err.Error())
		return false
	}
	return true
}

// Delete 删除单条缓存
func (c *AnswerCache) Delete(ctx context.Context, query string) bool {
	if !c.usable() {
		return false
	}

	ctx, span := cacheTracer.Start(ctx, "answer_cache.Delete")
	defer span.End()

	if err := c.client.Del(ctx, c.Key(query)); err != nil {
		logger.Warn(ctx, "cache delete failed", "error", err.Error())
		return false
	}
	return true
}

// ClearAll 清空本命名空间下的全部缓存，返回删除的键数量
func (c *AnswerCache) ClearAll(ctx context.Context) int {
	if !c.usable() {
		return 0
	}

	ctx, span := cacheTracer.Start(ctx, "answer_cache.ClearAll")
	defer span.End()

	keys, err := c.client.ScanKeys(ctx, c.prefix+"*")
	if err != nil {
		logger.Warn(ctx, "cache scan failed", "error", err.Error())
		return 0
	}
	if len(keys) == 0 {
		return 0
	}

	if err := c.client.Del(ctx, keys...); err != nil {
		logger.Warn(ctx, "cache clear failed", "error", err.Error())
		return 0
	}

	span.SetAttributes(attribute.Int("cache.cleared", len(keys)))
	logger.Info(ctx, "cache cleared", "count", len(keys))
	return len(keys)
}

// Stats 返回缓存统计
func (c *AnswerCache) Stats(ctx context.Context) search.CacheStats {
	stats := search.CacheStats{
		Enabled:    c.enabled,
		TTLSeconds: int64(c.ttl.Seconds()),
	}
	if !c.usable() {
		return stats
	}

	ctx, span := cacheTracer.Start(ctx, "answer_cache.Stats")
	defer span.End()

	if err := c.client.Ping(ctx); err != nil {
		return stats
	}
	stats.Connected = true

	keys, err := c.client.ScanKeys(ctx, c.prefix+"*")
	if err == nil {
		stats.KeyCount = int64(len(keys))
	}
	if info, err := c.client.Info(ctx, "memory"); err == nil {
		stats.MemoryUsed = parseMemoryUsed(info)
	}
	return stats
}

// usable 缓存是否可用
func (c *AnswerCache) usable() bool {
	return c != nil && c.enabled && c.client != nil
}

// parseMemoryUsed 从 INFO memory 输出中提取 used_memory_human
func parseMemoryUsed(info string) string {
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, "used_memory_human:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
