package search

import (
	"context"
	"strings"

	"ai-search-api/internal/workflow/chain"
	wfmodel "ai-search-api/internal/workflow/model"
	"ai-search-api/internal/workflow/node"
	"ai-search-api/pkg/logger"
)

const (
	// maxSubQueries 单次分解最多保留的子查询数
	maxSubQueries = 4
	// minSubQueryLen 短于等于该长度的行视为噪声丢弃
	minSubQueryLen = 5
)

// complexIndicators 判定问题是否值得分解的词面特征。
// 纯词面匹配，不做语义判断；误判的代价只是多一次 LLM 调用。
var complexIndicators = []string{
	"compare",
	"vs",
	"versus",
	"difference between",
	"pros and cons",
	"advantages and disadvantages",
	"how does",
	"why does",
	"explain the relationship",
	"what are the",
	" and ",
	"best practices for",
}

// Decomposer 把复合问题拆成可独立检索的子查询
type Decomposer struct {
	decompose *chain.DecomposeChain
	provider  string
}

func NewDecomposer(decompose *chain.DecomposeChain, provider string) *Decomposer {
	return &Decomposer{decompose: decompose, provider: provider}
}

// IsComplex 判断问题是否包含复合特征
func (d *Decomposer) IsComplex(query string) bool {
	lower := strings.ToLower(query)
	for _, indicator := range complexIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// Decompose 分解问题并返回子查询，最多 4 条。
// 分解失败或无有效输出时退化为原始问题本身，调用方无需区分。
func (d *Decomposer) Decompose(ctx context.Context, query string) []string {
	out, err := d.decompose.Invoke(ctx, &wfmodel.DecomposeInput{
		Provider: d.provider,
		Query:    query,
	})
	if err != nil {
		logger.Error(ctx, "query decomposition failed", err)
		return []string{query}
	}

	subQueries := node.SplitLines(out.RawSubQueries, minSubQueryLen)
	if len(subQueries) == 0 {
		return []string{query}
	}
	if len(subQueries) > maxSubQueries {
		subQueries = subQueries[:maxSubQueries]
	}
	return subQueries
}
