// Package llmctx 在 context 中传递 LLM 调用的工作流与提供商标识，
// 供可观测性回调按维度打点使用
package llmctx

import (
	"context"
	"strings"
)

type ctxKey string

const (
	ctxKeyWorkflow ctxKey = "llm_workflow"
	ctxKeyProvider ctxKey = "llm_provider"
)

func WithWorkflow(ctx context.Context, workflow string) context.Context {
	if ctx == nil {
		return nil
	}
	w := strings.TrimSpace(workflow)
	if w == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyWorkflow, w)
}

func WithProvider(ctx context.Context, provider string) context.Context {
	if ctx == nil {
		return nil
	}
	p := strings.TrimSpace(provider)
	if p == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyProvider, p)
}

func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	return WithProvider(WithWorkflow(ctx, workflow), provider)
}

func WorkflowFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	s, ok := ctx.Value(ctxKeyWorkflow).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return strings.TrimSpace(s)
}

func ProviderFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	s, ok := ctx.Value(ctxKeyProvider).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return strings.TrimSpace(s)
}
