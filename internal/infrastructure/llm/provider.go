// Package llm 提供 LLM ChatModel 工厂
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"ai-search-api/internal/config"
	apperrors "ai-search-api/pkg/errors"
)

// ProviderKind 提供商类型。新增提供商 = 新增一个枚举值和对应的构造函数。
type ProviderKind string

const (
	KindOpenAI     ProviderKind = "openai"
	KindDeepSeek   ProviderKind = "deepseek"
	KindOpenRouter ProviderKind = "openrouter"
	KindOllama     ProviderKind = "ollama"
)

// ParseProviderKind 解析提供商类型
func ParseProviderKind(s string) (ProviderKind, error) {
	switch ProviderKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindOpenAI:
		return KindOpenAI, nil
	case KindDeepSeek:
		return KindDeepSeek, nil
	case KindOpenRouter:
		return KindOpenRouter, nil
	case KindOllama:
		return KindOllama, nil
	default:
		return "", apperrors.Wrap(
			fmt.Errorf("unsupported kind: %q", s),
			apperrors.CodeProviderUnknown,
			"unknown llm provider kind",
		)
	}
}

// builder 按提供商类型构造 eino ChatModel
type builder func(ctx context.Context, cfg *config.ProviderConfig) (model.BaseChatModel, error)

// builders 提供商类型到构造函数的映射
var builders = map[ProviderKind]builder{
	KindOpenAI:     buildOpenAI,
	KindDeepSeek:   buildDeepSeek,
	KindOpenRouter: buildOpenRouter,
	KindOllama:     buildOllama,
}

func buildOpenAI(ctx context.Context, cfg *config.ProviderConfig) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.ErrAPIKeyMissing.WithDetail("openai provider requires api_key")
	}
	return newChatModel(ctx, cfg, cfg.BaseURL)
}

func buildDeepSeek(ctx context.Context, cfg *config.ProviderConfig) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.ErrAPIKeyMissing.WithDetail("deepseek provider requires api_key")
	}
	return newChatModel(ctx, cfg, defaultBaseURL(cfg.BaseURL, "https://api.deepseek.com/v1"))
}

func buildOpenRouter(ctx context.Context, cfg *config.ProviderConfig) (model.BaseChatModel, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.ErrAPIKeyMissing.WithDetail("openrouter provider requires api_key")
	}
	return newChatModel(ctx, cfg, defaultBaseURL(cfg.BaseURL, "https://openrouter.ai/api/v1"))
}

// buildOllama 本地模型，无需 API Key
func buildOllama(ctx context.Context, cfg *config.ProviderConfig) (model.BaseChatModel, error) {
	return newChatModel(ctx, cfg, defaultBaseURL(cfg.BaseURL, "http://localhost:11434/v1"))
}

// newChatModel 通过 Eino 的 OpenAI 兼容适配器创建 ChatModel
func newChatModel(ctx context.Context, cfg *config.ProviderConfig, baseURL string) (model.BaseChatModel, error) {
	mc := &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: baseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
	if cfg.MaxTokens > 0 {
		mc.MaxTokens = &cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		mc.Temperature = ptrFloat32(float32(cfg.Temperature))
	}

	chatModel, err := openai.NewChatModel(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model: %w", err)
	}
	return chatModel, nil
}

func defaultBaseURL(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

func ptrFloat32(f float32) *float32 {
	return &f
}
