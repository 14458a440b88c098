package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"ai-search-api/internal/domain/llmctx"
	wfmodel "ai-search-api/internal/workflow/model"
	workflowport "ai-search-api/internal/workflow/port"
	workflowprompt "ai-search-api/internal/workflow/prompt"
)

// RankChain 让模型按与查询的相关度挑选段落索引
type RankChain struct {
	factory workflowport.ChatModelFactory
}

func NewRankChain(factory workflowport.ChatModelFactory) *RankChain {
	return &RankChain{factory: factory}
}

func (c *RankChain) Invoke(ctx context.Context, in *wfmodel.RankInput) (*wfmodel.RankOutput, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	provider := strings.TrimSpace(in.Provider)
	ctx = llmctx.WithWorkflowProvider(ctx, "context_rank", provider)
	chatModel, err := c.factory.Get(ctx, provider)
	if err != nil {
		return nil, err
	}

	msgs, err := formatRankMessages(ctx, in)
	if err != nil {
		return nil, err
	}

	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		return nil, err
	}
	if outMsg == nil {
		return nil, fmt.Errorf("empty llm response")
	}
	return &wfmodel.RankOutput{RawIndices: outMsg.Content}, nil
}

func formatRankMessages(ctx context.Context, in *wfmodel.RankInput) ([]*schema.Message, error) {
	tpl, err := searchPromptRegistry.ChatTemplate(workflowprompt.PromptContextRankV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"query":   strings.TrimSpace(in.Query),
		"context": strings.TrimSpace(in.Context),
	}
	return tpl.Format(ctx, vars)
}
