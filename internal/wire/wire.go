// Package wire 手工组装应用依赖。
// 所有组件在启动时一次性构造并显式注入，不使用包级单例。
package wire

import (
	"context"

	"github.com/gin-gonic/gin"

	appsearch "ai-search-api/internal/application/search"
	"ai-search-api/internal/config"
	"ai-search-api/internal/infrastructure/llm"
	"ai-search-api/internal/infrastructure/persistence/redis"
	"ai-search-api/internal/infrastructure/searxng"
	"ai-search-api/internal/interfaces/http/handler"
	"ai-search-api/internal/interfaces/http/router"
	"ai-search-api/internal/workflow/chain"
	"ai-search-api/pkg/logger"
)

// App 组装完成的应用
type App struct {
	router *router.Router
	redis  *redis.Client
}

// Engine 返回 HTTP 引擎
func (a *App) Engine() *gin.Engine {
	return a.router.Engine()
}

// InitializeApp 构建完整的依赖图，返回应用与清理函数。
// 配置错误（未知提供商、缺失密钥）在这里立即失败；
// Redis 连不上只降级为无缓存运行，不阻塞启动。
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, caching degraded", "error", err.Error())
	}
	answerCache := redis.NewAnswerCache(redisClient, &cfg.Search)

	factory, err := llm.NewFactory(cfg)
	if err != nil {
		return nil, nil, err
	}
	provider := factory.DefaultProvider()

	retriever := searxng.NewClient(&cfg.Search.SearxNG)

	qaChain := chain.NewQAChain(factory)
	rankChain := chain.NewRankChain(factory)
	decomposeChain := chain.NewDecomposeChain(factory)
	suggestChain := chain.NewSuggestChain(factory)

	svc := appsearch.NewService(
		cfg.Search,
		retriever,
		answerCache,
		appsearch.NewReranker(rankChain, provider, cfg.Search.RerankLimit),
		appsearch.NewDecomposer(decomposeChain, provider),
		appsearch.NewSynthesizer(qaChain, provider),
		appsearch.NewSuggester(suggestChain, retriever, provider),
	)

	r := router.New(
		cfg,
		handler.NewSearchHandler(svc),
		handler.NewCacheHandler(answerCache),
		handler.NewHealthHandler(redisClient),
	)

	app := &App{router: r, redis: redisClient}
	cleanup := func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn(ctx, "failed to close redis client", "error", err.Error())
			}
		}
	}
	return app, cleanup, nil
}
