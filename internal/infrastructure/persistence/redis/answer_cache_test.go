package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-search-api/internal/config"
	"ai-search-api/internal/domain/search"
)

// fakeStore 内存版 store，仅保存字符串值，TTL 忽略
type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (s *fakeStore) SetEx(_ context.Context, key string, value interface{}, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		s.data[key] = string(v)
	case string:
		s.data[key] = v
	}
	return nil
}

func (s *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *fakeStore) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *fakeStore) Ping(_ context.Context) error { return nil }

func (s *fakeStore) Info(_ context.Context, _ string) (string, error) {
	return "# Memory\r\nused_memory_human:1.00M\r\n", nil
}

func newKeyOnlyCache(prefix string) *AnswerCache {
	return NewAnswerCache(nil, &config.SearchConfig{
		CacheEnabled: true,
		CachePrefix:  prefix,
		CacheTTL:     time.Hour,
	})
}

func TestKeyNormalization(t *testing.T) {
	c := newKeyOnlyCache("search:")

	base := c.Key("what is go")
	assert.Equal(t, base, c.Key("What Is Go"))
	assert.Equal(t, base, c.Key("  what is go  "))
	assert.NotEqual(t, base, c.Key("what is rust"))
}

func TestKeyFormat(t *testing.T) {
	c := newKeyOnlyCache("search:")

	key := c.Key("some query")
	assert.True(t, strings.HasPrefix(key, "search:query:"))

	digest := strings.TrimPrefix(key, "search:query:")
	assert.Len(t, digest, 16)
	for _, r := range digest {
		assert.Contains(t, "0123456789abcdef", string(r))
	}
	// 键中不应出现原始查询文本
	assert.NotContains(t, key, "some query")
}

func TestKeyDefaults(t *testing.T) {
	c := NewAnswerCache(nil, &config.SearchConfig{CacheEnabled: true})

	assert.True(t, strings.HasPrefix(c.Key("q"), "search:query:"))
	assert.Equal(t, time.Hour, c.ttl)
}

func TestDisabledCacheIsInert(t *testing.T) {
	c := NewAnswerCache(nil, &config.SearchConfig{CacheEnabled: false})
	ctx := context.Background()

	_, ok := c.Get(ctx, "q")
	assert.False(t, ok)
	assert.False(t, c.Set(ctx, "q", nil))
	assert.False(t, c.Delete(ctx, "q"))
	assert.Zero(t, c.ClearAll(ctx))

	stats := c.Stats(ctx)
	assert.False(t, stats.Enabled)
	assert.False(t, stats.Connected)
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newFakeStore()
	c := newAnswerCache(s, &config.SearchConfig{CacheEnabled: true})
	ctx := context.Background()

	stored := &search.Result{
		Question:   "what is go",
		Answer:     "Go is a language [0].",
		Confidence: 0.9,
		Sources:    []string{"https://go.dev"},
		Context: []search.ContextItem{
			{Text: "passage", URL: "https://go.dev", Source: "go.dev", CredibilityScore: 0.95},
		},
	}
	require.True(t, c.Set(ctx, "what is go", stored))

	got, ok := c.Get(ctx, "  What Is Go  ")
	require.True(t, ok)
	assert.Equal(t, stored.Question, got.Question)
	assert.Equal(t, stored.Answer, got.Answer)
	assert.Equal(t, stored.Confidence, got.Confidence)
	assert.Equal(t, stored.Sources, got.Sources)
	assert.Equal(t, stored.Context, got.Context)
	// 命中时打上缓存标记
	assert.True(t, got.Cached)
}

func TestGetMiss(t *testing.T) {
	c := newAnswerCache(newFakeStore(), &config.SearchConfig{CacheEnabled: true})

	_, ok := c.Get(context.Background(), "never stored")

	assert.False(t, ok)
}

func TestGetCorruptedEntryDropped(t *testing.T) {
	s := newFakeStore()
	c := newAnswerCache(s, &config.SearchConfig{CacheEnabled: true})
	ctx := context.Background()

	key := c.Key("broken")
	s.data[key] = "{not json"

	_, ok := c.Get(ctx, "broken")

	assert.False(t, ok)
	// 坏条目被顺手清除
	assert.NotContains(t, s.data, key)
}

func TestDeleteAndClearAll(t *testing.T) {
	s := newFakeStore()
	c := newAnswerCache(s, &config.SearchConfig{CacheEnabled: true})
	ctx := context.Background()

	c.Set(ctx, "q1", &search.Result{Answer: "a1"})
	c.Set(ctx, "q2", &search.Result{Answer: "a2"})

	assert.True(t, c.Delete(ctx, "q1"))
	_, ok := c.Get(ctx, "q1")
	assert.False(t, ok)

	assert.Equal(t, 1, c.ClearAll(ctx))
	assert.Empty(t, s.data)
}

func TestStatsWithStore(t *testing.T) {
	s := newFakeStore()
	c := newAnswerCache(s, &config.SearchConfig{CacheEnabled: true, CacheTTL: time.Hour})
	ctx := context.Background()

	c.Set(ctx, "q1", &search.Result{Answer: "a1"})

	stats := c.Stats(ctx)
	assert.True(t, stats.Enabled)
	assert.True(t, stats.Connected)
	assert.Equal(t, int64(1), stats.KeyCount)
	assert.Equal(t, "1.00M", stats.MemoryUsed)
	assert.Equal(t, int64(3600), stats.TTLSeconds)
}

func TestParseMemoryUsed(t *testing.T) {
	info := "# Memory\r\nused_memory:1048576\r\nused_memory_human:1.00M\r\nused_memory_rss:2097152\r\n"
	assert.Equal(t, "1.00M", parseMemoryUsed(info))
	assert.Equal(t, "", parseMemoryUsed("# Memory\r\nmaxmemory:0\r\n"))
}
