package eino

import (
	"context"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ai-search-api/internal/domain/llmctx"
	"ai-search-api/pkg/metrics"
)

// startTimeKey 用于在 Context 中存储调用开始时间
// 这样可以在 OnEnd/OnError 时计算总耗时
type startTimeKey struct{}

// newChatModelCallbackHandler 创建 AI 大模型调用的回调处理器
//
// 这个处理器会在每次 AI 模型生成内容时触发，记录：
//   - 调用次数（成功/失败）
//   - 耗时
//   - Token 消耗
//   - 分布式追踪信息
func newChatModelCallbackHandler() *cbtemplate.ModelCallbackHandler {
	return &cbtemplate.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ctx = context.WithValue(ctx, startTimeKey{}, time.Now())

			workflow := llmctx.WorkflowFromContext(ctx)
			provider := llmctx.ProviderFromContext(ctx)
			modelName := modelNameFromInput(input)

			attrs := []attribute.KeyValue{
				attribute.String("eino.workflow", workflow),
				attribute.String("llm.provider", provider),
				attribute.String("llm.model", modelName),
			}
			if info != nil {
				attrs = append(attrs,
					attribute.String("eino.node_name", info.Name),
					attribute.String("eino.type", info.Type),
				)
			}

			ctx, _ = otel.Tracer("eino").Start(ctx, "llm.generate", trace.WithAttributes(attrs...))
			return ctx
		},

		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			workflow := llmctx.WorkflowFromContext(ctx)
			provider := llmctx.ProviderFromContext(ctx)
			modelName := modelNameFromOutput(output)

			metrics.LLMCallTotal.WithLabelValues(workflow, provider, modelName, "success").Inc()
			if d := elapsedSeconds(ctx); d > 0 {
				metrics.LLMCallDuration.WithLabelValues(workflow, provider, modelName).Observe(d)
			}

			if output != nil && output.TokenUsage != nil {
				metrics.LLMTokensUsed.WithLabelValues(workflow, provider, modelName, "prompt").
					Add(float64(output.TokenUsage.PromptTokens))
				metrics.LLMTokensUsed.WithLabelValues(workflow, provider, modelName, "completion").
					Add(float64(output.TokenUsage.CompletionTokens))
			}

			span := trace.SpanFromContext(ctx)
			if span != nil {
				if output != nil && output.TokenUsage != nil {
					span.SetAttributes(
						attribute.Int("llm.prompt_tokens", output.TokenUsage.PromptTokens),
						attribute.Int("llm.completion_tokens", output.TokenUsage.CompletionTokens),
					)
				}
				span.End()
			}
			return ctx
		},

		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			workflow := llmctx.WorkflowFromContext(ctx)
			provider := llmctx.ProviderFromContext(ctx)
			modelName := ""
			if info != nil {
				modelName = info.Type
			}

			metrics.LLMCallTotal.WithLabelValues(workflow, provider, modelName, "error").Inc()
			if d := elapsedSeconds(ctx); d > 0 {
				metrics.LLMCallDuration.WithLabelValues(workflow, provider, modelName).Observe(d)
			}

			span := trace.SpanFromContext(ctx)
			if span != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.End()
			}
			return ctx
		},
	}
}

// elapsedSeconds 计算从 Context 开始到当前的时间差（秒）
func elapsedSeconds(ctx context.Context) float64 {
	v := ctx.Value(startTimeKey{})
	start, ok := v.(time.Time)
	if !ok || start.IsZero() {
		return 0
	}
	return time.Since(start).Seconds()
}

// modelNameFromInput 从输入配置中提取模型名称
func modelNameFromInput(in *model.CallbackInput) string {
	if in == nil || in.Config == nil {
		return ""
	}
	return in.Config.Model
}

// modelNameFromOutput 从输出配置中提取模型名称
func modelNameFromOutput(out *model.CallbackOutput) string {
	if out == nil || out.Config == nil {
		return ""
	}
	return out.Config.Model
}
