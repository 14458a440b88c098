package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	domain "ai-search-api/internal/domain/search"
	"ai-search-api/internal/workflow/chain"
	wfmodel "ai-search-api/internal/workflow/model"
	"ai-search-api/internal/workflow/node"
	"ai-search-api/pkg/logger"
	"ai-search-api/pkg/metrics"
)

const (
	// previewRunes 喂给重排模型的段落预览长度
	previewRunes = 180
	// credibilityFallbackSize 解析失败时按可信度取的条数
	credibilityFallbackSize = 3
)

// Reranker 调用 LLM 对检索段落按相关度与可信度重排。
// 所有失败都降级为确定性的选择策略，Rerank 永不返回错误。
type Reranker struct {
	rank     *chain.RankChain
	provider string
	limit    int
}

func NewReranker(rank *chain.RankChain, provider string, limit int) *Reranker {
	if limit <= 0 {
		limit = 5
	}
	return &Reranker{rank: rank, provider: provider, limit: limit}
}

// Rerank 返回指向结果集的索引选择；降级原因随选择一并返回。
func (r *Reranker) Rerank(ctx context.Context, query string, set domain.RetrievedSet) domain.RankSelection {
	if set.Empty() {
		return domain.RankSelection{}
	}

	out, err := r.rank.Invoke(ctx, &wfmodel.RankInput{
		Provider: r.provider,
		Query:    query,
		Context:  r.formatContext(set),
	})
	if err != nil {
		logger.Error(ctx, "passage reranking failed, falling back to retrieval order", err)
		metrics.RerankFallbackTotal.WithLabelValues(string(domain.FallbackModelError)).Inc()
		return domain.RankSelection{
			Indices:  sequentialIndices(min(r.limit, set.Len())),
			Fallback: domain.FallbackModelError,
		}
	}

	indices := dedupIndices(node.ParseIndexList(out.RawIndices, set.Len()))
	if len(indices) == 0 {
		logger.Warn(ctx, "reranker returned no valid indices, using top by credibility",
			"raw_output", node.TruncateByRunes(out.RawIndices, 120))
		metrics.RerankFallbackTotal.WithLabelValues(string(domain.FallbackNoValidIndices)).Inc()
		return domain.RankSelection{
			Indices:  topByCredibility(set, credibilityFallbackSize),
			Fallback: domain.FallbackNoValidIndices,
		}
	}

	if len(indices) > r.limit {
		indices = indices[:r.limit]
	}
	return domain.RankSelection{Indices: indices}
}

// formatContext 生成带索引与可信度的段落清单，每条截断为固定长度预览
func (r *Reranker) formatContext(set domain.RetrievedSet) string {
	lines := make([]string, 0, set.Len())
	for i, p := range set.Passages {
		lines = append(lines, fmt.Sprintf("[%d] (credibility: %.2f) %s...",
			i, set.Hits[i].CredibilityScore, node.TruncateByRunes(p, previewRunes)))
	}
	return strings.Join(lines, "\n")
}

// dedupIndices 去重并保持首次出现顺序
func dedupIndices(indices []int) []int {
	if len(indices) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(indices))
	out := indices[:0]
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

// topByCredibility 按可信度降序取前 n 个索引，同分保持原始检索顺序
func topByCredibility(set domain.RetrievedSet, n int) []int {
	indices := sequentialIndices(set.Len())
	sort.SliceStable(indices, func(a, b int) bool {
		return set.Hits[indices[a]].CredibilityScore > set.Hits[indices[b]].CredibilityScore
	})
	if len(indices) > n {
		indices = indices[:n]
	}
	return indices
}

func sequentialIndices(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}
