// Package search 定义搜索流水线的领域模型
package search

// RawHit 搜索引擎返回的单条结果
type RawHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Engine  string `json:"engine"`
}

// ScoredHit 带可信度评分的搜索结果
type ScoredHit struct {
	RawHit
	CredibilityScore    float64 `json:"credibility_score"`
	CredibilityCategory string  `json:"credibility_category"`
}

// RetrievedSet 检索结果集：段落文本与元数据按索引一一对应。
// 不变量：len(Passages) == len(Hits)；两个切片只能同步过滤，
// 索引是段落文本与其元数据之间唯一的关联键。
type RetrievedSet struct {
	Passages []string
	Hits     []ScoredHit
}

// Len 返回结果集大小
func (s RetrievedSet) Len() int {
	return len(s.Passages)
}

// Empty 判断结果集是否为空
func (s RetrievedSet) Empty() bool {
	return len(s.Passages) == 0
}

// FallbackReason 重排降级原因
type FallbackReason string

const (
	// FallbackNone 模型输出解析成功，未降级
	FallbackNone FallbackReason = ""
	// FallbackNoValidIndices 模型输出无有效索引，按可信度取前 3
	FallbackNoValidIndices FallbackReason = "no_valid_indices"
	// FallbackModelError 模型调用失败，按原始检索顺序取前 5
	FallbackModelError FallbackReason = "model_error"
)

// RankSelection 重排选择：指向 RetrievedSet 的索引序列，按引用顺序排列。
// 不变量：0 <= len(Indices) <= 重排上限；索引均在范围内且无重复。
type RankSelection struct {
	Indices  []int
	Fallback FallbackReason
}

// ContextItem 返回给调用方的上下文条目
type ContextItem struct {
	Text                string  `json:"text"`
	URL                 string  `json:"url"`
	Source              string  `json:"source"`
	Title               string  `json:"title"`
	CredibilityScore    float64 `json:"credibility_score"`
	CredibilityCategory string  `json:"credibility_category"`
}

// Result 一次搜索的最终结果。构造后视为只读值对象。
type Result struct {
	Question   string        `json:"question"`
	Answer     string        `json:"answer"`
	Confidence float64       `json:"confidence"`
	Sources    []string      `json:"sources"`
	Context    []ContextItem `json:"context,omitempty"`
	SubQueries []string      `json:"sub_queries,omitempty"`
	Cached     bool          `json:"cached"`
}

// SourceItem 不经合成直接返回的原始来源
type SourceItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Engine  string `json:"engine"`
}

// SourceList 来源查询的结果
type SourceList struct {
	Query      string       `json:"query"`
	Sources    []SourceItem `json:"sources"`
	TotalFound int          `json:"total_found"`
}

// StreamEventType 流式事件类型
type StreamEventType string

const (
	EventStatus StreamEventType = "status"
	EventToken  StreamEventType = "token"
	EventDone   StreamEventType = "done"
	EventError  StreamEventType = "error"
)

// StreamEvent 流式搜索的单个事件。
// 事件序列约定：status* token+ (done|error)，有且仅有一个终结事件。
type StreamEvent struct {
	Type    StreamEventType `json:"type"`
	Message string          `json:"message,omitempty"`
	Content string          `json:"content,omitempty"`
	Result  *Result         `json:"result,omitempty"`
}
