package search

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ai-search-api/internal/config"
	domain "ai-search-api/internal/domain/search"
	"ai-search-api/internal/workflow/chain"
)

// fakeChatModel 返回固定内容或固定错误的聊天模型
type fakeChatModel struct {
	reply  string
	chunks []string
	err    error
}

func (m *fakeChatModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if m.err != nil {
		return nil, m.err
	}
	chunks := m.chunks
	if len(chunks) == 0 {
		chunks = []string{m.reply}
	}
	msgs := make([]*schema.Message, 0, len(chunks))
	for _, chunk := range chunks {
		msgs = append(msgs, schema.AssistantMessage(chunk, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

// fakeFactory 总是返回同一个模型
type fakeFactory struct {
	m model.BaseChatModel
}

func (f fakeFactory) Get(_ context.Context, _ string) (model.BaseChatModel, error) {
	return f.m, nil
}

// fakeRetriever 按查询返回预置结果集
type fakeRetriever struct {
	sets    map[string]domain.RetrievedSet
	queries []string
}

func (r *fakeRetriever) Retrieve(_ context.Context, query string, _ int) (domain.RetrievedSet, error) {
	r.queries = append(r.queries, query)
	return r.sets[query], nil
}

// fakeCache 内存缓存，语义与 Redis 实现一致（Get 命中时打 Cached 标记）
type fakeCache struct {
	store    map[string]*domain.Result
	setCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string]*domain.Result{}}
}

func cacheKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

func (c *fakeCache) Get(_ context.Context, query string) (*domain.Result, bool) {
	r, ok := c.store[cacheKey(query)]
	if !ok {
		return nil, false
	}
	copied := *r
	copied.Cached = true
	return &copied, true
}

func (c *fakeCache) Set(_ context.Context, query string, result *domain.Result) bool {
	c.setCalls++
	copied := *result
	c.store[cacheKey(query)] = &copied
	return true
}

func (c *fakeCache) Delete(_ context.Context, query string) bool {
	delete(c.store, cacheKey(query))
	return true
}

func (c *fakeCache) ClearAll(_ context.Context) int {
	n := len(c.store)
	c.store = map[string]*domain.Result{}
	return n
}

func (c *fakeCache) Stats(_ context.Context) domain.CacheStats {
	return domain.CacheStats{Enabled: true, Connected: true, KeyCount: int64(len(c.store))}
}

// makeSet 构造检索结果集；scores 与 urls 一一对应
func makeSet(urls []string, scores []float64) domain.RetrievedSet {
	set := domain.RetrievedSet{}
	for i, u := range urls {
		set.Passages = append(set.Passages, "passage for "+u)
		set.Hits = append(set.Hits, domain.ScoredHit{
			RawHit: domain.RawHit{
				Title:   "title " + u,
				URL:     u,
				Content: "content for " + u,
				Engine:  "searxng",
			},
			CredibilityScore:    scores[i],
			CredibilityCategory: "general",
		})
	}
	return set
}

func testConfig() config.SearchConfig {
	return config.SearchConfig{
		TopK:                 10,
		RerankLimit:          5,
		ContextBudget:        3000,
		ComplexContextBudget: 3500,
		MergeLimit:           15,
		CacheEnabled:         true,
	}
}

// newTestService 用假模型组装一个完整的服务
func newTestService(cfg config.SearchConfig, retriever *fakeRetriever, cache *fakeCache, qa, rank, decompose, suggest model.BaseChatModel) *Service {
	return NewService(
		cfg,
		retriever,
		cache,
		NewReranker(chain.NewRankChain(fakeFactory{rank}), "test", cfg.RerankLimit),
		NewDecomposer(chain.NewDecomposeChain(fakeFactory{decompose}), "test"),
		NewSynthesizer(chain.NewQAChain(fakeFactory{qa}), "test"),
		NewSuggester(chain.NewSuggestChain(fakeFactory{suggest}), retriever, "test"),
	)
}
