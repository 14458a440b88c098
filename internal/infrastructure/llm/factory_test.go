package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-search-api/internal/config"
	apperrors "ai-search-api/pkg/errors"
)

func multiProviderConfig(defaultProvider string) *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: defaultProvider,
			Providers: map[string]config.ProviderConfig{
				"openai": {Kind: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"},
				// 备选提供商：声明了但没配密钥
				"deepseek":   {Kind: "deepseek", Model: "deepseek-chat"},
				"openrouter": {Kind: "openrouter", Model: "meta-llama/llama-3-8b"},
				"ollama":     {Kind: "ollama", BaseURL: "http://localhost:11434", Model: "llama3"},
			},
		},
	}
}

func TestNewFactoryOnlyDefaultProviderNeedsKey(t *testing.T) {
	f, err := NewFactory(multiProviderConfig("openai"))

	require.NoError(t, err)
	assert.Equal(t, "openai", f.DefaultProvider())
}

func TestNewFactoryDefaultProviderMissingKey(t *testing.T) {
	_, err := NewFactory(multiProviderConfig("deepseek"))

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeAPIKeyMissing, apperrors.AsAppError(err).Code)
}

func TestNewFactoryOllamaDefaultNeedsNoKey(t *testing.T) {
	_, err := NewFactory(multiProviderConfig("ollama"))

	assert.NoError(t, err)
}

func TestNewFactoryRejectsUnknownKind(t *testing.T) {
	cfg := multiProviderConfig("openai")
	cfg.LLM.Providers["mystery"] = config.ProviderConfig{Kind: "mystery"}

	_, err := NewFactory(cfg)

	assert.Error(t, err)
}

func TestNewFactoryMissingDefaultProvider(t *testing.T) {
	cfg := multiProviderConfig("openai")
	cfg.LLM.DefaultProvider = "absent"

	_, err := NewFactory(cfg)

	assert.Error(t, err)
}

func TestGetDefersKeyCheckToUse(t *testing.T) {
	f, err := NewFactory(multiProviderConfig("openai"))
	require.NoError(t, err)

	_, err = f.Get(context.Background(), "deepseek")

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeAPIKeyMissing, apperrors.AsAppError(err).Code)
}
