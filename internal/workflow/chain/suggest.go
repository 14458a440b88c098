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

// SuggestChain 为用户生成可直接点击的搜索建议
type SuggestChain struct {
	factory workflowport.ChatModelFactory
}

func NewSuggestChain(factory workflowport.ChatModelFactory) *SuggestChain {
	return &SuggestChain{factory: factory}
}

func (c *SuggestChain) Invoke(ctx context.Context, in *wfmodel.SuggestInput) (*wfmodel.SuggestOutput, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	provider := strings.TrimSpace(in.Provider)
	ctx = llmctx.WithWorkflowProvider(ctx, "query_suggest", provider)
	chatModel, err := c.factory.Get(ctx, provider)
	if err != nil {
		return nil, err
	}

	msgs, err := formatSuggestMessages(ctx, in)
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
	return &wfmodel.SuggestOutput{RawSuggestions: outMsg.Content}, nil
}

func formatSuggestMessages(ctx context.Context, in *wfmodel.SuggestInput) ([]*schema.Message, error) {
	tpl, err := searchPromptRegistry.ChatTemplate(workflowprompt.PromptSuggestionsV1)
	if err != nil {
		return nil, err
	}
	userType := strings.TrimSpace(in.UserType)
	if userType == "" {
		userType = "new"
	}
	vars := map[string]any{
		"user_type": userType,
		"context":   strings.TrimSpace(in.Context),
	}
	return tpl.Format(ctx, vars)
}
