package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"ai-search-api/internal/domain/llmctx"
	wfmodel "ai-search-api/internal/workflow/model"
	"ai-search-api/internal/workflow/node"
	workflowport "ai-search-api/internal/workflow/port"
	workflowprompt "ai-search-api/internal/workflow/prompt"
)

// QAChain 基于检索上下文合成带引用的回答
type QAChain struct {
	factory workflowport.ChatModelFactory
}

func NewQAChain(factory workflowport.ChatModelFactory) *QAChain {
	return &QAChain{factory: factory}
}

func (c *QAChain) Invoke(ctx context.Context, in *wfmodel.QAInput) (*wfmodel.QAOutput, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Question) == "" {
		return nil, fmt.Errorf("question is required")
	}

	provider := strings.TrimSpace(in.Provider)
	ctx = llmctx.WithWorkflowProvider(ctx, "search_qa", provider)
	chatModel, err := c.factory.Get(ctx, provider)
	if err != nil {
		return nil, err
	}

	msgs, err := formatQAMessages(ctx, in)
	if err != nil {
		return nil, err
	}

	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		return nil, err
	}
	if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
		return nil, fmt.Errorf("empty llm response")
	}

	answer, confidence := node.ExtractConfidenceLine(outMsg.Content)
	out := &wfmodel.QAOutput{
		Answer:         answer,
		ConfidenceText: confidence,
		Meta: wfmodel.LLMUsageMeta{
			Provider:    provider,
			GeneratedAt: time.Now(),
		},
	}
	if outMsg.ResponseMeta != nil && outMsg.ResponseMeta.Usage != nil {
		out.Meta.PromptTokens = outMsg.ResponseMeta.Usage.PromptTokens
		out.Meta.CompletionTokens = outMsg.ResponseMeta.Usage.CompletionTokens
	}
	return out, nil
}

// Stream 返回 Eino StreamReader；调用方负责 Close()。
// 约定：流末尾可能带有 Content 为空但包含 Usage 的消息，用于 Token 统计。
func (c *QAChain) Stream(ctx context.Context, in *wfmodel.QAInput) (*schema.StreamReader[*schema.Message], error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Question) == "" {
		return nil, fmt.Errorf("question is required")
	}

	provider := strings.TrimSpace(in.Provider)
	ctx = llmctx.WithWorkflowProvider(ctx, "search_qa_stream", provider)
	chatModel, err := c.factory.Get(ctx, provider)
	if err != nil {
		return nil, err
	}

	msgs, err := formatQAMessages(ctx, in)
	if err != nil {
		return nil, err
	}
	return chatModel.Stream(ctx, msgs)
}

var searchPromptRegistry = workflowprompt.NewRegistry()

func formatQAMessages(ctx context.Context, in *wfmodel.QAInput) ([]*schema.Message, error) {
	tpl, err := searchPromptRegistry.ChatTemplate(workflowprompt.PromptSearchQAV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"context":  strings.TrimSpace(in.Context),
		"question": strings.TrimSpace(in.Question),
	}
	return tpl.Format(ctx, vars)
}
