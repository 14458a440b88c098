// Package model 定义工作流层的输入输出结构
package model

import "time"

// LLMUsageMeta LLM 调用元信息
type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	GeneratedAt      time.Time
}

// QAInput 合成回答的输入
type QAInput struct {
	Provider string
	// Context 已编号的段落上下文（[0]、[1]……按选择顺序编号）
	Context  string
	Question string
}

// QAOutput 合成回答的输出
type QAOutput struct {
	// Answer 去掉置信度行的正文
	Answer string
	// ConfidenceText 模型给出的置信度自由文本，首个 token 应为数字
	ConfidenceText string
	Meta           LLMUsageMeta
}

// RankInput 段落重排的输入
type RankInput struct {
	Provider string
	Query    string
	// Context 带索引和可信度的段落清单
	Context string
}

// RankOutput 段落重排的输出
type RankOutput struct {
	// RawIndices 模型返回的原始索引文本，如 "1, 3, 5"
	RawIndices string
}

// DecomposeInput 查询分解的输入
type DecomposeInput struct {
	Provider string
	Query    string
}

// DecomposeOutput 查询分解的输出
type DecomposeOutput struct {
	// RawSubQueries 模型返回的按行分隔的子查询文本
	RawSubQueries string
}

// SuggestInput 查询建议的输入
type SuggestInput struct {
	Provider string
	// UserType "new" 或 "returning"
	UserType string
	Context  string
}

// SuggestOutput 查询建议的输出
type SuggestOutput struct {
	RawSuggestions string
}
