package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	domain "ai-search-api/internal/domain/search"
	"ai-search-api/internal/workflow/chain"
	wfmodel "ai-search-api/internal/workflow/model"
	"ai-search-api/internal/workflow/node"
	"ai-search-api/pkg/logger"
)

const (
	// defaultConfidence 模型未按格式给出置信度时的默认值
	defaultConfidence = 0.7
	// contextItemRunes 返回给调用方的上下文文本截断长度
	contextItemRunes = 500
)

// Synthesizer 基于重排后的段落合成带引用标记的回答。
// 合成失败不抛错，而是返回 answer 为错误描述、confidence 为 0 的结果，
// 保证所有调用方拿到统一的结果形状。
type Synthesizer struct {
	qa       *chain.QAChain
	provider string
}

func NewSynthesizer(qa *chain.QAChain, provider string) *Synthesizer {
	return &Synthesizer{qa: qa, provider: provider}
}

// Synthesize 合成最终回答
func (s *Synthesizer) Synthesize(ctx context.Context, question string, set domain.RetrievedSet, sel domain.RankSelection, budget int) *domain.Result {
	out, err := s.qa.Invoke(ctx, &wfmodel.QAInput{
		Provider: s.provider,
		Context:  s.NumberedContext(set, sel, budget),
		Question: question,
	})
	if err != nil {
		logger.Error(ctx, "answer synthesis failed", err, "question", node.TruncateByRunes(question, 80))
		return ErrorResult(question, err)
	}
	return s.Compose(question, out.Answer, out.ConfidenceText, set, sel)
}

// OpenStream 打开合成回答的流式通道；调用方负责 Close()
func (s *Synthesizer) OpenStream(ctx context.Context, question string, set domain.RetrievedSet, sel domain.RankSelection, budget int) (*schema.StreamReader[*schema.Message], error) {
	return s.qa.Stream(ctx, &wfmodel.QAInput{
		Provider: s.provider,
		Context:  s.NumberedContext(set, sel, budget),
		Question: question,
	})
}

// NumberedContext 按选择顺序给段落编号（[0]、[1]……），供模型引用。
// 编号是选择内的序号而不是原始检索索引，与回答中的引用标记一致。
// 整体按 rune 截断到给定预算，避免撑爆模型上下文。
func (s *Synthesizer) NumberedContext(set domain.RetrievedSet, sel domain.RankSelection, budget int) string {
	blocks := make([]string, 0, len(sel.Indices))
	for pos, idx := range sel.Indices {
		blocks = append(blocks, fmt.Sprintf("[%d] %s", pos, set.Passages[idx]))
	}
	return node.TruncateByRunes(strings.Join(blocks, "\n\n"), budget)
}

// Compose 由模型原始输出组装最终结果
func (s *Synthesizer) Compose(question, answer, confidenceText string, set domain.RetrievedSet, sel domain.RankSelection) *domain.Result {
	confidence := defaultConfidence
	if v, ok := node.ParseLeadingFloat(confidenceText); ok {
		confidence = v
	}

	items := ContextItems(set, sel)
	sources := make([]string, 0, len(items))
	for _, item := range items {
		if item.URL != "" {
			sources = append(sources, item.URL)
		}
	}

	return &domain.Result{
		Question:   question,
		Answer:     answer,
		Confidence: confidence,
		Sources:    sources,
		Context:    items,
	}
}

// ContextItems 把选中的结果转换为调用方可见的上下文条目
func ContextItems(set domain.RetrievedSet, sel domain.RankSelection) []domain.ContextItem {
	items := make([]domain.ContextItem, 0, len(sel.Indices))
	for _, idx := range sel.Indices {
		hit := set.Hits[idx]
		items = append(items, domain.ContextItem{
			Text:                node.TruncateByRunes(hit.Content, contextItemRunes),
			URL:                 hit.URL,
			Source:              hit.Engine,
			Title:               hit.Title,
			CredibilityScore:    hit.CredibilityScore,
			CredibilityCategory: hit.CredibilityCategory,
		})
	}
	return items
}

// ErrorResult 把合成失败包装成统一的结果形状
func ErrorResult(question string, err error) *domain.Result {
	return &domain.Result{
		Question:   question,
		Answer:     "Error: " + err.Error(),
		Confidence: 0.0,
		Sources:    []string{},
		Context:    []domain.ContextItem{},
	}
}

// EmptyResult 检索为空时的终态结果
func EmptyResult(question string) *domain.Result {
	return &domain.Result{
		Question:   question,
		Answer:     "Could not find relevant information",
		Confidence: 0.0,
		Sources:    []string{},
		Context:    []domain.ContextItem{},
	}
}
