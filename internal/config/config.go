// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Search        SearchConfig        `yaml:"search" mapstructure:"search"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// SearchConfig 搜索流水线配置
type SearchConfig struct {
	SearxNG SearxNGConfig `yaml:"searxng" mapstructure:"searxng"`

	// TopK 每次检索返回的最大结果数
	TopK int `yaml:"top_k" mapstructure:"top_k"`
	// RerankLimit 重排后保留的最大段落数
	RerankLimit int `yaml:"rerank_limit" mapstructure:"rerank_limit"`
	// ContextBudget 合成提示词的上下文字符预算
	ContextBudget int `yaml:"context_budget" mapstructure:"context_budget"`
	// ComplexContextBudget 分解查询路径的上下文字符预算
	ComplexContextBudget int `yaml:"complex_context_budget" mapstructure:"complex_context_budget"`
	// MergeLimit 分解查询合并去重后保留的最大结果数
	MergeLimit int `yaml:"merge_limit" mapstructure:"merge_limit"`

	// CacheEnabled 是否启用结果缓存
	CacheEnabled bool `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	// CacheTTL 缓存过期时间
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	// CachePrefix 缓存键命名空间前缀
	CachePrefix string `yaml:"cache_prefix" mapstructure:"cache_prefix"`
	// CacheDecomposed 分解查询路径是否写缓存
	CacheDecomposed bool `yaml:"cache_decomposed" mapstructure:"cache_decomposed"`
}

// SearxNGConfig SearXNG 搜索引擎配置
type SearxNGConfig struct {
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	Language   string        `yaml:"language" mapstructure:"language"`
	SafeSearch int           `yaml:"safe_search" mapstructure:"safe_search"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider" mapstructure:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
}

// ProviderConfig LLM 提供商配置
type ProviderConfig struct {
	// Kind 提供商类型：openai / deepseek / openrouter / ollama
	Kind        string        `yaml:"kind" mapstructure:"kind"`
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter   string  `yaml:"exporter" mapstructure:"exporter"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	CORS CORSConfig `yaml:"cors" mapstructure:"cors"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}
