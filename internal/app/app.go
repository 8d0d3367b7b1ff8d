// Package app 組裝儲存層、服務與 AI 依賴
package app

import (
	"context"
	"errors"
	"fmt"

	"recipe-book/internal/core/ai/cache"
	"recipe-book/internal/core/ai/openrouter"
	"recipe-book/internal/core/ai/queue"
	aiservice "recipe-book/internal/core/ai/service"
	"recipe-book/internal/core/category"
	"recipe-book/internal/core/recipe"
	"recipe-book/internal/core/shopping"
	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/infrastructure/store"
	"recipe-book/internal/pkg/common"

	"go.uber.org/zap"
)

// App 應用依賴
type App struct {
	Config       *config.Config
	Store        store.Store
	CacheManager *cache.CacheManager
	Queue        *queue.Manager
	Categories   *category.Service
	Recipes      *recipe.Service
	Generator    *recipe.Generator
	Shopping     *shopping.Service
}

// New 依設定開啟儲存層並建立所有服務
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.Open(ctx, &cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return NewWithStore(cfg, st), nil
}

// NewWithStore 以既有儲存層建立所有服務
func NewWithStore(cfg *config.Config, st store.Store) *App {
	a := &App{
		Config: cfg,
		Store:  st,
	}

	a.Categories = category.NewService(st, cfg.Catalog.NewCategoryPriority)
	a.Recipes = recipe.NewService(st, a.Categories, cfg.Catalog.SearchLimit)
	a.Shopping = shopping.NewService(st, a.Categories, shopping.OptionsFromConfig(cfg))

	// 未啟用 AI 時傳入 nil 介面，生成服務僅提供 mock
	var processor recipe.Processor
	if cfg.OpenRouter.Enabled {
		a.CacheManager = cache.NewManager(&cfg.Cache)
		a.Queue = queue.NewManager(&cfg.Queue, openrouter.NewClient(&cfg.OpenRouter))
		processor = aiservice.NewService(a.Queue, a.CacheManager)
	}
	a.Generator = recipe.NewGenerator(processor, a.Categories)

	common.LogInfo("Services initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("ai_enabled", cfg.OpenRouter.Enabled),
		zap.Bool("cache_enabled", a.CacheManager != nil),
		zap.String("missing_recipe_policy", cfg.Shopping.MissingRecipePolicy),
		zap.String("invalid_servings_policy", cfg.Shopping.InvalidServingsPolicy),
	)

	return a
}

// Close 停止 AI 隊列並釋放快取與儲存層連線
func (a *App) Close() error {
	return errors.Join(a.Queue.Close(), a.CacheManager.Close(), a.Store.Close())
}
