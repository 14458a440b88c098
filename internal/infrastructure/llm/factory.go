package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"

	"ai-search-api/internal/config"
	apperrors "ai-search-api/pkg/errors"
)

// Factory 管理多个 Eino ChatModel 客户端实例
type Factory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewFactory 创建 LLM 工厂。
// 所有提供商的类型在此处即校验，API Key 只校验默认提供商：
// 配置里通常声明多个备选提供商，但只有真正被选中的才需要密钥，
// 其余的推迟到 Get 惰性构建时再查。
func NewFactory(cfg *config.Config) (*Factory, error) {
	llmCfg := &cfg.LLM
	if llmCfg.DefaultProvider == "" {
		return nil, apperrors.New(apperrors.CodeConfigInvalid, "llm.default_provider not configured")
	}
	if _, ok := llmCfg.Providers[llmCfg.DefaultProvider]; !ok {
		return nil, apperrors.New(apperrors.CodeConfigInvalid,
			fmt.Sprintf("default provider %q not present in llm.providers", llmCfg.DefaultProvider))
	}
	for name, p := range llmCfg.Providers {
		if _, err := ParseProviderKind(p.Kind); err != nil {
			return nil, apperrors.AsAppError(err).WithDetail("provider " + name)
		}
	}
	if err := checkAPIKey(llmCfg.DefaultProvider, llmCfg.Providers[llmCfg.DefaultProvider]); err != nil {
		return nil, err
	}

	return &Factory{
		config: llmCfg,
		models: make(map[string]model.BaseChatModel),
	}, nil
}

// Get 获取指定名称的 ChatModel，名称为空时返回默认提供商
func (f *Factory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.config.DefaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	// 惰性加载
	f.mu.Lock()
	defer f.mu.Unlock()

	// 再次检查防止竞态
	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	kind, err := ParseProviderKind(providerCfg.Kind)
	if err != nil {
		return nil, err
	}
	if err := checkAPIKey(name, providerCfg); err != nil {
		return nil, err
	}

	chatModel, err := builders[kind](ctx, &providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

// Default 返回默认 ChatModel
func (f *Factory) Default(ctx context.Context) (model.BaseChatModel, error) {
	return f.Get(ctx, "")
}

// DefaultProvider 返回默认提供商名称
func (f *Factory) DefaultProvider() string {
	return f.config.DefaultProvider
}

// checkAPIKey 校验提供商密钥；本地 ollama 不需要密钥
func checkAPIKey(name string, p config.ProviderConfig) error {
	kind, err := ParseProviderKind(p.Kind)
	if err != nil {
		return err
	}
	if kind != KindOllama && p.APIKey == "" {
		return apperrors.ErrAPIKeyMissing.WithDetail("provider " + name)
	}
	return nil
}
