package search

import (
	"context"
	"strings"

	domain "ai-search-api/internal/domain/search"
	"ai-search-api/internal/workflow/chain"
	wfmodel "ai-search-api/internal/workflow/model"
	"ai-search-api/internal/workflow/node"
	"ai-search-api/pkg/logger"
)

const (
	maxSuggestions = 5
	// maxHistoryLines 喂给模型的历史查询条数上限
	maxHistoryLines = 10
	// trendingQuery 为新用户拉取热门话题用的固定查询
	trendingQuery = "latest technology news trends"
	// trendingTopicsLimit 热门话题标题条数上限
	trendingTopicsLimit = 8
)

// fallbackTrendingContext 热门话题拉取失败时的兜底上下文
const fallbackTrendingContext = "AI developments, web frameworks, cloud computing, cybersecurity, data science"

// fallbackSuggestions 模型不可用时的固定建议
var fallbackSuggestions = []string{
	"What are the latest features in Next.js?",
	"Explain quantum computing simply",
	"Best practices for React performance",
	"How does a transformer model work?",
	"Compare Python vs Rust for backend",
}

// Suggester 生成个性化搜索建议：
// 新用户基于实时热门话题，老用户基于检索历史。
type Suggester struct {
	suggest   *chain.SuggestChain
	retriever domain.Retriever
	provider  string
}

func NewSuggester(suggest *chain.SuggestChain, retriever domain.Retriever, provider string) *Suggester {
	return &Suggester{suggest: suggest, retriever: retriever, provider: provider}
}

// Suggest 生成最多 5 条搜索建议；任何失败都退化为固定建议列表
func (s *Suggester) Suggest(ctx context.Context, history []string) []string {
	userType := "new"
	var promptContext string
	if len(history) > 0 {
		userType = "returning"
		if len(history) > maxHistoryLines {
			history = history[:maxHistoryLines]
		}
		promptContext = strings.Join(history, "\n")
	} else {
		promptContext = s.trendingTopics(ctx)
	}

	out, err := s.suggest.Invoke(ctx, &wfmodel.SuggestInput{
		Provider: s.provider,
		UserType: userType,
		Context:  promptContext,
	})
	if err != nil {
		logger.Error(ctx, "suggestion generation failed", err)
		return fallbackSuggestions
	}

	suggestions := node.SplitLines(out.RawSuggestions, minSubQueryLen)
	if len(suggestions) == 0 {
		return fallbackSuggestions
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// trendingTopics 用检索端口拉取热门话题标题作为建议上下文
func (s *Suggester) trendingTopics(ctx context.Context) string {
	set, err := s.retriever.Retrieve(ctx, trendingQuery, trendingTopicsLimit+2)
	if err != nil || set.Empty() {
		return fallbackTrendingContext
	}
	titles := make([]string, 0, trendingTopicsLimit)
	for _, hit := range set.Hits {
		if strings.TrimSpace(hit.Title) == "" {
			continue
		}
		titles = append(titles, hit.Title)
		if len(titles) == trendingTopicsLimit {
			break
		}
	}
	if len(titles) == 0 {
		return fallbackTrendingContext
	}
	return strings.Join(titles, "\n")
}
