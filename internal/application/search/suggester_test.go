package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	domain "ai-search-api/internal/domain/search"
	"ai-search-api/internal/workflow/chain"
)

func newTestSuggester(m *fakeChatModel, retriever *fakeRetriever) *Suggester {
	return NewSuggester(chain.NewSuggestChain(fakeFactory{m}), retriever, "test")
}

func TestSuggestReturningUserUsesHistory(t *testing.T) {
	retriever := &fakeRetriever{}
	s := newTestSuggester(&fakeChatModel{
		reply: "What's new in Go 1.25?\nHow does HTTP/3 work?\nPostgres vs MySQL for OLTP",
	}, retriever)

	got := s.Suggest(context.Background(), []string{"go generics", "http servers"})

	assert.Equal(t, []string{
		"What's new in Go 1.25?",
		"How does HTTP/3 work?",
		"Postgres vs MySQL for OLTP",
	}, got)
	// 有历史时不拉取热门话题
	assert.Empty(t, retriever.queries)
}

func TestSuggestCapsAtFive(t *testing.T) {
	s := newTestSuggester(&fakeChatModel{
		reply: "suggestion one\nsuggestion two\nsuggestion three\nsuggestion four\nsuggestion five\nsuggestion six",
	}, &fakeRetriever{})

	got := s.Suggest(context.Background(), []string{"anything"})

	assert.Len(t, got, maxSuggestions)
	assert.Equal(t, "suggestion five", got[4])
}

func TestSuggestNewUserPullsTrendingTopics(t *testing.T) {
	retriever := &fakeRetriever{sets: map[string]domain.RetrievedSet{
		trendingQuery: makeSet([]string{"https://a.com", "https://b.com"}, []float64{0.5, 0.5}),
	}}
	s := newTestSuggester(&fakeChatModel{reply: "something worth searching"}, retriever)

	got := s.Suggest(context.Background(), nil)

	assert.Equal(t, []string{"something worth searching"}, got)
	assert.Equal(t, []string{trendingQuery}, retriever.queries)
}

func TestSuggestFallbackOnModelError(t *testing.T) {
	s := newTestSuggester(&fakeChatModel{err: assert.AnError}, &fakeRetriever{})

	got := s.Suggest(context.Background(), nil)

	assert.Equal(t, fallbackSuggestions, got)
}

func TestSuggestFallbackOnNoiseOnlyOutput(t *testing.T) {
	s := newTestSuggester(&fakeChatModel{reply: "1.\n2.\nok"}, &fakeRetriever{})

	got := s.Suggest(context.Background(), []string{"anything"})

	assert.Equal(t, fallbackSuggestions, got)
}

func TestTrendingTopicsFallbackContext(t *testing.T) {
	s := newTestSuggester(&fakeChatModel{}, &fakeRetriever{})

	assert.Equal(t, fallbackTrendingContext, s.trendingTopics(context.Background()))
}
