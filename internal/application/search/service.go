// Package search 实现搜索问答流水线的应用层编排：
// 缓存检查 → 检索 → 重排 → 合成 → 缓存写入，
// 以及查询分解、流式输出、来源查询等变体。
package search

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"ai-search-api/internal/config"
	domain "ai-search-api/internal/domain/search"
	"ai-search-api/internal/workflow/node"
	apperrors "ai-search-api/pkg/errors"
	"ai-search-api/pkg/logger"
	"ai-search-api/pkg/metrics"
)

// Options 单次搜索的调用方选项
type Options struct {
	// SkipCache 跳过缓存读取（仍会写入）
	SkipCache bool
	// IncludeContext 在结果中保留上下文条目
	IncludeContext bool
}

// Service 搜索流水线的编排入口。无请求间共享可变状态，
// 可被任意多个并发请求安全共用。
type Service struct {
	cfg         config.SearchConfig
	retriever   domain.Retriever
	cache       domain.AnswerCache
	reranker    *Reranker
	decomposer  *Decomposer
	synthesizer *Synthesizer
	suggester   *Suggester

	// group 合并并发的相同新鲜查询，避免重复打搜索引擎和 LLM
	group singleflight.Group
}

func NewService(
	cfg config.SearchConfig,
	retriever domain.Retriever,
	cache domain.AnswerCache,
	reranker *Reranker,
	decomposer *Decomposer,
	synthesizer *Synthesizer,
	suggester *Suggester,
) *Service {
	return &Service{
		cfg:         cfg,
		retriever:   retriever,
		cache:       cache,
		reranker:    reranker,
		decomposer:  decomposer,
		synthesizer: synthesizer,
		suggester:   suggester,
	}
}

// Search 标准搜索：缓存命中直接返回，否则走完整流水线
func (s *Service) Search(ctx context.Context, query string, opts Options) (*domain.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("query is required")
	}

	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues("simple").Observe(time.Since(start).Seconds())
	}()

	if !opts.SkipCache {
		if cached, ok := s.cache.Get(ctx, query); ok {
			metrics.SearchTotal.WithLabelValues("simple", "cache_hit").Inc()
			return s.shape(cached, opts), nil
		}
	}

	v, err, _ := s.group.Do("simple:"+normalizeKey(query), func() (any, error) {
		return s.runPipeline(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	result := v.(*domain.Result)
	metrics.SearchTotal.WithLabelValues("simple", outcomeOf(result)).Inc()
	return s.shape(result, opts), nil
}

// ComplexSearch 带自动查询分解的搜索。
// 非复合问题直接委托给标准流程；复合问题分解后逐个检索、
// 按 URL 去重合并再重排合成。
func (s *Service) ComplexSearch(ctx context.Context, query string, opts Options) (*domain.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("query is required")
	}

	if !s.decomposer.IsComplex(query) {
		return s.Search(ctx, query, opts)
	}

	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues("complex").Observe(time.Since(start).Seconds())
	}()

	if !opts.SkipCache && s.cfg.CacheDecomposed {
		if cached, ok := s.cache.Get(ctx, query); ok {
			metrics.SearchTotal.WithLabelValues("complex", "cache_hit").Inc()
			return s.shape(cached, opts), nil
		}
	}

	logger.Info(ctx, "complex query detected, decomposing",
		"query", node.TruncateByRunes(query, 50))
	subQueries := s.decomposer.Decompose(ctx, query)
	logger.Info(ctx, "query decomposed", "sub_query_count", len(subQueries))

	merged := s.retrieveMerged(ctx, subQueries)
	if merged.Empty() {
		metrics.SearchTotal.WithLabelValues("complex", "no_results").Inc()
		return s.shape(EmptyResult(query), opts), nil
	}

	selection := s.reranker.Rerank(ctx, query, merged)
	result := s.synthesizer.Synthesize(ctx, query, merged, selection, s.cfg.ComplexContextBudget)
	result.SubQueries = subQueries

	if s.cfg.CacheDecomposed {
		s.cache.Set(ctx, query, result)
	}
	metrics.SearchTotal.WithLabelValues("complex", outcomeOf(result)).Inc()
	return s.shape(result, opts), nil
}

// SearchStream 流式搜索。事件序列约定：status* token+ (done|error)，
// 通道在终结事件后关闭。调用方取消 ctx 即停止消费，
// 已在途的上游调用不会被中断。
func (s *Service) SearchStream(ctx context.Context, query string, opts Options) (<-chan domain.StreamEvent, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("query is required")
	}

	events := make(chan domain.StreamEvent, 16)
	go func() {
		defer close(events)
		start := time.Now()
		defer func() {
			metrics.SearchDuration.WithLabelValues("stream").Observe(time.Since(start).Seconds())
		}()

		if !opts.SkipCache {
			if cached, ok := s.cache.Get(ctx, query); ok {
				metrics.SearchTotal.WithLabelValues("stream", "cache_hit").Inc()
				emit(ctx, events, domain.StreamEvent{Type: domain.EventStatus, Message: "Found cached result"})
				streamWords(ctx, events, cached.Answer)
				emit(ctx, events, domain.StreamEvent{Type: domain.EventDone, Result: s.shape(cached, opts)})
				return
			}
		}

		emit(ctx, events, domain.StreamEvent{Type: domain.EventStatus, Message: "Searching the web..."})
		set, err := s.retriever.Retrieve(ctx, query, s.cfg.TopK)
		if err != nil || set.Empty() {
			metrics.SearchTotal.WithLabelValues("stream", "no_results").Inc()
			result := EmptyResult(query)
			streamWords(ctx, events, result.Answer)
			emit(ctx, events, domain.StreamEvent{Type: domain.EventDone, Result: s.shape(result, opts)})
			return
		}

		emit(ctx, events, domain.StreamEvent{Type: domain.EventStatus, Message: "Analyzing sources..."})
		selection := s.reranker.Rerank(ctx, query, set)

		emit(ctx, events, domain.StreamEvent{Type: domain.EventStatus, Message: "Generating answer..."})
		s.streamSynthesis(ctx, events, query, set, selection, opts)
	}()
	return events, nil
}

// streamSynthesis 透传 LLM 流式 token，并在结束后组装终结事件。
// 末尾的置信度行通过暂存最后一个未完结的行来截留，不会下发给客户端。
func (s *Service) streamSynthesis(ctx context.Context, events chan<- domain.StreamEvent, query string, set domain.RetrievedSet, selection domain.RankSelection, opts Options) {
	reader, err := s.synthesizer.OpenStream(ctx, query, set, selection, s.cfg.ContextBudget)
	if err != nil {
		logger.Error(ctx, "streaming synthesis failed to start", err)
		metrics.SearchTotal.WithLabelValues("stream", "error").Inc()
		emit(ctx, events, domain.StreamEvent{Type: domain.EventError, Message: err.Error()})
		return
	}
	defer reader.Close()

	var full strings.Builder
	var pending string
	for {
		msg, recvErr := reader.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			logger.Error(ctx, "streaming synthesis interrupted", recvErr)
			metrics.SearchTotal.WithLabelValues("stream", "error").Inc()
			emit(ctx, events, domain.StreamEvent{Type: domain.EventError, Message: recvErr.Error()})
			return
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		full.WriteString(msg.Content)
		pending += msg.Content
		for {
			nl := strings.Index(pending, "\n")
			if nl < 0 {
				break
			}
			line, rest := pending[:nl], pending[nl+1:]
			// 已完结的行若可能是末尾的置信度行，留到后续内容证明它不是再放行
			if isConfidenceLine(line) && strings.TrimSpace(rest) == "" {
				break
			}
			streamWords(ctx, events, line)
			pending = rest
		}
	}

	answer, confidenceText := node.ExtractConfidenceLine(full.String())
	if trimmed := strings.TrimSpace(pending); trimmed != "" && !isConfidenceLine(trimmed) {
		streamWords(ctx, events, trimmed)
	}

	result := s.synthesizer.Compose(query, answer, confidenceText, set, selection)
	s.cache.Set(ctx, query, result)
	metrics.SearchTotal.WithLabelValues("stream", outcomeOf(result)).Inc()
	emit(ctx, events, domain.StreamEvent{Type: domain.EventDone, Result: s.shape(result, opts)})
}

// Sources 只检索不合成，返回原始来源列表
func (s *Service) Sources(ctx context.Context, query string, limit int) (*domain.SourceList, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrInvalidParam.WithDetail("query is required")
	}
	if limit <= 0 || limit > s.cfg.TopK {
		limit = s.cfg.TopK
	}

	set, err := s.retriever.Retrieve(ctx, query, s.cfg.TopK)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "web retrieval failed")
	}

	sources := make([]domain.SourceItem, 0, min(limit, set.Len()))
	for _, hit := range set.Hits {
		if len(sources) == limit {
			break
		}
		sources = append(sources, domain.SourceItem{
			Title:   hit.Title,
			URL:     hit.URL,
			Snippet: node.TruncateByRunes(hit.Content, 300),
			Engine:  hit.Engine,
		})
	}
	return &domain.SourceList{
		Query:      query,
		Sources:    sources,
		TotalFound: set.Len(),
	}, nil
}

// Suggestions 生成搜索建议
func (s *Service) Suggestions(ctx context.Context, history []string) []string {
	return s.suggester.Suggest(ctx, history)
}

// Cache 暴露缓存端口，供管理接口使用
func (s *Service) Cache() domain.AnswerCache {
	return s.cache
}

// runPipeline 执行一次新鲜搜索：检索 → 重排 → 合成 → 缓存写入
func (s *Service) runPipeline(ctx context.Context, query string) (*domain.Result, error) {
	logger.Info(ctx, "processing question", "question", node.TruncateByRunes(query, 80))

	retrievalStart := time.Now()
	set, err := s.retriever.Retrieve(ctx, query, s.cfg.TopK)
	if err != nil {
		// 检索实现约定失败时返回空集，到这里只剩上下文取消
		return nil, apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "web retrieval failed")
	}
	logger.Info(ctx, "retrieval finished",
		"passage_count", set.Len(),
		"duration_ms", time.Since(retrievalStart).Milliseconds())

	if set.Empty() {
		return EmptyResult(query), nil
	}

	selection := s.reranker.Rerank(ctx, query, set)
	logger.Info(ctx, "passages selected",
		"selected", len(selection.Indices),
		"total", set.Len(),
		"fallback", string(selection.Fallback))

	result := s.synthesizer.Synthesize(ctx, query, set, selection, s.cfg.ContextBudget)
	s.cache.Set(ctx, query, result)
	return result, nil
}

// retrieveMerged 逐个检索子查询并按 URL 去重合并，保持首次出现顺序
func (s *Service) retrieveMerged(ctx context.Context, subQueries []string) domain.RetrievedSet {
	var merged domain.RetrievedSet
	seen := make(map[string]struct{})
	for _, sq := range subQueries {
		logger.Info(ctx, "retrieving sub-query", "sub_query", sq)
		set, err := s.retriever.Retrieve(ctx, sq, s.cfg.TopK)
		if err != nil {
			continue
		}
		for i := range set.Passages {
			url := set.Hits[i].URL
			if _, ok := seen[url]; ok {
				continue
			}
			seen[url] = struct{}{}
			merged.Passages = append(merged.Passages, set.Passages[i])
			merged.Hits = append(merged.Hits, set.Hits[i])
			if merged.Len() == s.cfg.MergeLimit {
				return merged
			}
		}
	}
	return merged
}

// shape 按调用方选项裁剪结果，返回副本以保持缓存值不可变
func (s *Service) shape(result *domain.Result, opts Options) *domain.Result {
	shaped := *result
	if !opts.IncludeContext {
		shaped.Context = nil
	}
	return &shaped
}

// normalizeKey 与缓存层一致的查询规范化，用作 singleflight 键
func normalizeKey(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// outcomeOf 把结果映射为指标维度
func outcomeOf(result *domain.Result) string {
	switch {
	case strings.HasPrefix(result.Answer, "Error:"):
		return "error"
	case len(result.Sources) == 0 && result.Confidence == 0:
		return "no_results"
	default:
		return "success"
	}
}

// emit 在下发事件与上下文取消之间二选一，客户端断开时尽快退出
func emit(ctx context.Context, events chan<- domain.StreamEvent, event domain.StreamEvent) {
	select {
	case events <- event:
	case <-ctx.Done():
	}
}

// isConfidenceLine 判断一行是否是合成输出末尾的置信度标记行
func isConfidenceLine(line string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "confidence:")
}

// streamWords 把文本按词切分为 token 事件，空词全跳过
func streamWords(ctx context.Context, events chan<- domain.StreamEvent, text string) {
	for _, word := range strings.Fields(text) {
		emit(ctx, events, domain.StreamEvent{Type: domain.EventToken, Content: word + " "})
	}
}
