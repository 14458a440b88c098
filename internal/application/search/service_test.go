package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "ai-search-api/internal/domain/search"
)

func TestSearchEmptyQueryRejected(t *testing.T) {
	svc := newTestService(testConfig(), &fakeRetriever{}, newFakeCache(),
		&fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{})

	_, err := svc.Search(context.Background(), "   ", Options{})

	assert.Error(t, err)
}

func TestSearchEmptyRetrievalIsTerminal(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{}}
	svc := newTestService(testConfig(), retriever, newFakeCache(),
		&fakeChatModel{reply: "should not be called"}, &fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{})

	result, err := svc.Search(context.Background(), "obscure query", Options{IncludeContext: true})

	require.NoError(t, err)
	assert.Equal(t, "Could not find relevant information", result.Answer)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.Sources)
	assert.False(t, result.Cached)
}

func TestSearchFullPipeline(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		"what is go": makeSet([]string{"https://go.dev", "https://example.com"}, []float64{0.95, 0.55}),
	}}
	cache := newFakeCache()
	svc := newTestService(testConfig(), retriever, cache,
		&fakeChatModel{reply: "Go is a language [0].\n\nConfidence: 0.9"},
		&fakeChatModel{reply: "0, 1"},
		&fakeChatModel{}, &fakeChatModel{})

	result, err := svc.Search(context.Background(), "what is go", Options{IncludeContext: true})

	require.NoError(t, err)
	assert.Equal(t, "Go is a language [0].", result.Answer)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, []string{"https://go.dev", "https://example.com"}, result.Sources)
	assert.Len(t, result.Context, 2)
	// 新鲜结果写入缓存
	assert.Equal(t, 1, cache.setCalls)
}

func TestSearchCacheHitSkipsPipeline(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{}}
	cache := newFakeCache()
	cache.Set(context.Background(), "What Is Go", &domain.Result{
		Question: "What Is Go", Answer: "cached answer", Confidence: 0.8,
	})
	cache.setCalls = 0
	svc := newTestService(testConfig(), retriever, cache,
		&fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{})

	// 缓存键对大小写和首尾空白不敏感
	result, err := svc.Search(context.Background(), "  what is go  ", Options{IncludeContext: true})

	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Equal(t, "cached answer", result.Answer)
	assert.Empty(t, retriever.queries)
}

func TestSearchSkipCacheBypassesRead(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		"q": makeSet([]string{"https://a.com"}, []float64{0.9}),
	}}
	cache := newFakeCache()
	cache.Set(context.Background(), "q", &domain.Result{Answer: "stale"})
	svc := newTestService(testConfig(), retriever, cache,
		&fakeChatModel{reply: "fresh answer\nConfidence: 0.9"},
		&fakeChatModel{reply: "0"}, &fakeChatModel{}, &fakeChatModel{})

	result, err := svc.Search(context.Background(), "q", Options{SkipCache: true, IncludeContext: true})

	require.NoError(t, err)
	assert.Equal(t, "fresh answer", result.Answer)
	assert.NotEmpty(t, retriever.queries)
}

func TestSearchExcludesContextWhenNotRequested(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		"q": makeSet([]string{"https://a.com"}, []float64{0.9}),
	}}
	svc := newTestService(testConfig(), retriever, newFakeCache(),
		&fakeChatModel{reply: "answer\nConfidence: 0.9"},
		&fakeChatModel{reply: "0"}, &fakeChatModel{}, &fakeChatModel{})

	result, err := svc.Search(context.Background(), "q", Options{IncludeContext: false})

	require.NoError(t, err)
	assert.Nil(t, result.Context)
	assert.Equal(t, []string{"https://a.com"}, result.Sources)
}

func TestComplexSearchDelegatesSimpleQueries(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		"simple query": makeSet([]string{"https://a.com"}, []float64{0.9}),
	}}
	svc := newTestService(testConfig(), retriever, newFakeCache(),
		&fakeChatModel{reply: "answer\nConfidence: 0.9"},
		&fakeChatModel{reply: "0"},
		&fakeChatModel{reply: "should not be invoked"},
		&fakeChatModel{})

	result, err := svc.ComplexSearch(context.Background(), "simple query", Options{IncludeContext: true})

	require.NoError(t, err)
	assert.Nil(t, result.SubQueries)
	assert.Equal(t, []string{"simple query"}, retriever.queries)
}

func TestComplexSearchMergesAndDeduplicates(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		"What are the key features of React?": makeSet(
			[]string{"https://react.dev", "https://shared.com"}, []float64{0.95, 0.55}),
		"What are the key features of Vue?": makeSet(
			[]string{"https://vuejs.org", "https://shared.com"}, []float64{0.95, 0.55}),
	}}
	cache := newFakeCache()
	svc := newTestService(testConfig(), retriever, cache,
		&fakeChatModel{reply: "Both are frameworks [0][1].\n\nConfidence: 0.8"},
		&fakeChatModel{reply: "0, 1, 2"},
		&fakeChatModel{reply: "What are the key features of React?\nWhat are the key features of Vue?"},
		&fakeChatModel{})

	result, err := svc.ComplexSearch(context.Background(), "Compare React and Vue", Options{IncludeContext: true})

	require.NoError(t, err)
	assert.Equal(t, []string{
		"What are the key features of React?",
		"What are the key features of Vue?",
	}, result.SubQueries)
	// shared.com 只出现一次（首次出现保留）
	assert.Equal(t, []string{"https://react.dev", "https://shared.com", "https://vuejs.org"}, result.Sources)
	// 默认不缓存分解路径的结果
	assert.Equal(t, 0, cache.setCalls)
}

func TestComplexSearchCachesWhenConfigured(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		"sub-query number one": makeSet([]string{"https://a.com"}, []float64{0.9}),
	}}
	cache := newFakeCache()
	cfg := testConfig()
	cfg.CacheDecomposed = true
	svc := newTestService(cfg, retriever, cache,
		&fakeChatModel{reply: "answer\nConfidence: 0.9"},
		&fakeChatModel{reply: "0"},
		&fakeChatModel{reply: "sub-query number one"},
		&fakeChatModel{})

	_, err := svc.ComplexSearch(context.Background(), "Compare A and B", Options{IncludeContext: true})

	require.NoError(t, err)
	assert.Equal(t, 1, cache.setCalls)
}

func TestComplexSearchEmptyMergeIsTerminal(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{}}
	svc := newTestService(testConfig(), retriever, newFakeCache(),
		&fakeChatModel{}, &fakeChatModel{},
		&fakeChatModel{reply: "sub-query number one\nsub-query number two"},
		&fakeChatModel{})

	result, err := svc.ComplexSearch(context.Background(), "Compare A and B", Options{IncludeContext: true})

	require.NoError(t, err)
	assert.Equal(t, "Could not find relevant information", result.Answer)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestSources(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		"q": makeSet([]string{"https://a.com", "https://b.com", "https://c.com"}, []float64{0.9, 0.8, 0.7}),
	}}
	svc := newTestService(testConfig(), retriever, newFakeCache(),
		&fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{})

	list, err := svc.Sources(context.Background(), "q", 2)

	require.NoError(t, err)
	assert.Equal(t, "q", list.Query)
	assert.Len(t, list.Sources, 2)
	assert.Equal(t, 3, list.TotalFound)
	assert.Equal(t, "https://a.com", list.Sources[0].URL)
	assert.Equal(t, "searxng", list.Sources[0].Engine)
}

func TestSuggestionsFromHistory(t *testing.T) {
	svc := newTestService(testConfig(), &fakeRetriever{}, newFakeCache(),
		&fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{},
		&fakeChatModel{reply: "What's new in React 19?\nHow does Raft consensus work?\nBest practices for Go errors\nPostgres indexing deep dive\nWebAssembly in production"})

	got := svc.Suggestions(context.Background(), []string{"react hooks", "go generics"})

	assert.Len(t, got, 5)
	assert.Equal(t, "What's new in React 19?", got[0])
}

func TestSuggestionsFallbackOnModelFailure(t *testing.T) {
	svc := newTestService(testConfig(), &fakeRetriever{}, newFakeCache(),
		&fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{},
		&fakeChatModel{err: assert.AnError})

	got := svc.Suggestions(context.Background(), nil)

	assert.Equal(t, fallbackSuggestions, got)
}

func collectEvents(t *testing.T, events <-chan domain.StreamEvent) []domain.StreamEvent {
	t.Helper()
	var collected []domain.StreamEvent
	for ev := range events {
		collected = append(collected, ev)
	}
	return collected
}

func TestSearchStreamFreshEventOrdering(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		"q": makeSet([]string{"https://a.com"}, []float64{0.9}),
	}}
	cache := newFakeCache()
	svc := newTestService(testConfig(), retriever, cache,
		&fakeChatModel{chunks: []string{"The answer ", "is Go.\n", "Confidence: 0.9"}},
		&fakeChatModel{reply: "0"}, &fakeChatModel{}, &fakeChatModel{})

	events, err := svc.SearchStream(context.Background(), "q", Options{IncludeContext: true})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.NotEmpty(t, collected)

	// status* token+ done
	assert.Equal(t, domain.EventStatus, collected[0].Type)
	last := collected[len(collected)-1]
	assert.Equal(t, domain.EventDone, last.Type)
	require.NotNil(t, last.Result)
	assert.Equal(t, "The answer is Go.", last.Result.Answer)
	assert.Equal(t, 0.9, last.Result.Confidence)

	var tokens string
	for _, ev := range collected {
		if ev.Type == domain.EventToken {
			tokens += ev.Content
		}
	}
	assert.Equal(t, "The answer is Go. ", tokens)
	// 置信度行被截留，不下发给客户端
	assert.NotContains(t, tokens, "Confidence")

	// 流式的新鲜结果同样写缓存
	assert.Equal(t, 1, cache.setCalls)
}

func TestSearchStreamConfidenceLineWithTrailingNewline(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		"q": makeSet([]string{"https://a.com"}, []float64{0.9}),
	}}
	svc := newTestService(testConfig(), retriever, newFakeCache(),
		&fakeChatModel{chunks: []string{"The answer ", "is Go.\n", "Confidence: 0.9\n"}},
		&fakeChatModel{reply: "0"}, &fakeChatModel{}, &fakeChatModel{})

	events, err := svc.SearchStream(context.Background(), "q", Options{IncludeContext: true})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	var tokens string
	for _, ev := range collected {
		if ev.Type == domain.EventToken {
			tokens += ev.Content
		}
	}
	assert.Equal(t, "The answer is Go. ", tokens)
	assert.NotContains(t, tokens, "Confidence")

	last := collected[len(collected)-1]
	require.Equal(t, domain.EventDone, last.Type)
	assert.Equal(t, 0.9, last.Result.Confidence)
}

func TestSearchStreamMidTextConfidenceMentionIsStreamed(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		"q": makeSet([]string{"https://a.com"}, []float64{0.9}),
	}}
	svc := newTestService(testConfig(), retriever, newFakeCache(),
		&fakeChatModel{chunks: []string{"Confidence: intervals matter.\n", "More detail.\n", "Confidence: 0.8\n"}},
		&fakeChatModel{reply: "0"}, &fakeChatModel{}, &fakeChatModel{})

	events, err := svc.SearchStream(context.Background(), "q", Options{IncludeContext: true})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	var tokens string
	for _, ev := range collected {
		if ev.Type == domain.EventToken {
			tokens += ev.Content
		}
	}
	// 正文中间的行一旦被后续内容证实不是末尾标记，照常下发
	assert.Equal(t, "Confidence: intervals matter. More detail. ", tokens)
}

func TestSearchStreamCachedResult(t *testing.T) {
	cache := newFakeCache()
	cache.Set(context.Background(), "q", &domain.Result{
		Question: "q", Answer: "cached words here", Confidence: 0.8,
	})
	cache.setCalls = 0
	svc := newTestService(testConfig(), &fakeRetriever{}, cache,
		&fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{})

	events, err := svc.SearchStream(context.Background(), "q", Options{IncludeContext: true})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	require.NotEmpty(t, collected)
	assert.Equal(t, domain.EventStatus, collected[0].Type)
	assert.Equal(t, "Found cached result", collected[0].Message)

	last := collected[len(collected)-1]
	assert.Equal(t, domain.EventDone, last.Type)
	assert.True(t, last.Result.Cached)
	assert.Equal(t, 0, cache.setCalls)
}

func TestSearchStreamEmptyRetrieval(t *testing.T) {
	svc := newTestService(testConfig(), &fakeRetriever{sets: map[string]domain.RetrievedSet{}}, newFakeCache(),
		&fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{}, &fakeChatModel{})

	events, err := svc.SearchStream(context.Background(), "nothing to find", Options{IncludeContext: true})
	require.NoError(t, err)

	collected := collectEvents(t, events)
	last := collected[len(collected)-1]
	assert.Equal(t, domain.EventDone, last.Type)
	assert.Equal(t, "Could not find relevant information", last.Result.Answer)
	assert.Equal(t, 0.0, last.Result.Confidence)
}
