// Package searxng 提供 SearXNG 搜索引擎客户端
package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ai-search-api/internal/config"
	"ai-search-api/internal/domain/credibility"
	"ai-search-api/internal/domain/search"
	"ai-search-api/pkg/logger"
	"ai-search-api/pkg/metrics"
)

var tracer = otel.Tracer("searxng")

const defaultTopK = 10

// Client SearXNG 客户端。检索结果与元数据打包在同一个返回值里，
// 不在实例上保留任何请求级状态，可安全地被并发请求共享。
type Client struct {
	baseURL    string
	language   string
	safeSearch int
	httpClient *http.Client
}

// NewClient 创建 SearXNG 客户端
func NewClient(cfg *config.SearxNGConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		language:   cfg.Language,
		safeSearch: cfg.SafeSearch,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// searchResponse SearXNG JSON 响应体
type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Engine  string `json:"engine"`
	} `json:"results"`
}

// Retrieve 检索网页结果并规范化为段落+评分元数据。
// 传输失败、非 2xx、响应体不可解析，一律降级为空结果集并记录日志，
// 调用方应把空结果集当作"未找到信息"的合法终态处理。
func (c *Client) Retrieve(ctx context.Context, query string, k int) (search.RetrievedSet, error) {
	ctx, span := tracer.Start(ctx, "searxng.Retrieve",
		trace.WithAttributes(attribute.Int("searxng.top_k", k)))
	defer span.End()

	if k <= 0 {
		k = defaultTopK
	}

	req, err := c.buildRequest(ctx, query)
	if err != nil {
		span.RecordError(err)
		logger.Warn(ctx, "searxng request build failed", "error", err.Error())
		return search.RetrievedSet{}, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		logger.Warn(ctx, "searxng request failed", "error", err.Error())
		return search.RetrievedSet{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		logger.Warn(ctx, "searxng returned non-2xx", "status", resp.StatusCode)
		return search.RetrievedSet{}, nil
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		span.RecordError(err)
		logger.Warn(ctx, "searxng response malformed", "error", err.Error())
		return search.RetrievedSet{}, nil
	}

	results := body.Results
	if len(results) > k {
		results = results[:k]
	}

	set := search.RetrievedSet{
		Passages: make([]string, 0, len(results)),
		Hits:     make([]search.ScoredHit, 0, len(results)),
	}
	for _, r := range results {
		engine := r.Engine
		if engine == "" {
			engine = "searxng"
		}
		rating := credibility.Score(r.URL)
		set.Hits = append(set.Hits, search.ScoredHit{
			RawHit: search.RawHit{
				Title:   r.Title,
				URL:     r.URL,
				Content: r.Content,
				Engine:  engine,
			},
			CredibilityScore:    rating.Score,
			CredibilityCategory: rating.Category,
		})
		// 标题与正文拼接成段落，供模型做上下文
		set.Passages = append(set.Passages, strings.TrimSpace(r.Title+"\n"+r.Content))
	}

	span.SetAttributes(attribute.Int("searxng.results", set.Len()))
	metrics.RetrievalResults.WithLabelValues("searxng").Observe(float64(set.Len()))
	logger.Info(ctx, "retrieved passages", "count", set.Len())

	return set, nil
}

// buildRequest 构造搜索请求
func (c *Client) buildRequest(ctx context.Context, query string) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("searxng base_url not configured")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("language", c.language)
	params.Set("safesearch", strconv.Itoa(c.safeSearch))

	endpoint := c.baseURL + "/search?" + params.Encode()
	return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
}
