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

// DecomposeChain 把复合问题拆成可独立检索的子查询
type DecomposeChain struct {
	factory workflowport.ChatModelFactory
}

func NewDecomposeChain(factory workflowport.ChatModelFactory) *DecomposeChain {
	return &DecomposeChain{factory: factory}
}

func (c *DecomposeChain) Invoke(ctx context.Context, in *wfmodel.DecomposeInput) (*wfmodel.DecomposeOutput, error) {
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
	ctx = llmctx.WithWorkflowProvider(ctx, "query_decompose", provider)
	chatModel, err := c.factory.Get(ctx, provider)
	if err != nil {
		return nil, err
	}

	msgs, err := formatDecomposeMessages(ctx, in)
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
	return &wfmodel.DecomposeOutput{RawSubQueries: outMsg.Content}, nil
}

func formatDecomposeMessages(ctx context.Context, in *wfmodel.DecomposeInput) ([]*schema.Message, error) {
	tpl, err := searchPromptRegistry.ChatTemplate(workflowprompt.PromptQueryDecomposeV1)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"query": strings.TrimSpace(in.Query),
	}
	return tpl.Format(ctx, vars)
}
