package store

import (
	"context"
	"fmt"
	"strings"

	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 食譜、分類與食材目錄的儲存介面
//
// 所有回傳的食譜皆為副本，呼叫端修改不會影響儲存層。
type Store interface {
	GetRecipe(ctx context.Context, id string) (*common.Recipe, error)
	ListRecipes(ctx context.Context) ([]*common.Recipe, error)
	FindRecipeByTitle(ctx context.Context, title string) (*common.Recipe, error)
	SaveRecipe(ctx context.Context, recipe *common.Recipe) error
	DeleteRecipe(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]common.Category, error)
	SaveCategory(ctx context.Context, category common.Category) error

	ListIngredients(ctx context.Context) ([]common.CatalogIngredient, error)
	SaveIngredient(ctx context.Context, ingredient common.CatalogIngredient) error

	// Reset 清空所有資料，供匯入種子資料使用
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open 依設定建立儲存層
func Open(ctx context.Context, cfg *config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		common.LogInfo("Using in-memory store")
		return NewMemoryStore(), nil
	case config.DriverRedis:
		s, err := NewRedisStore(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		common.LogInfo("Using redis store",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("prefix", cfg.Redis.Prefix),
		)
		return s, nil
	case config.DriverPostgres:
		s, err := NewPostgresStore(ctx, &cfg.Postgres)
		if err != nil {
			return nil, err
		}
		common.LogInfo("Using postgres store")
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// duplicateTitle 標題已被其他食譜使用
func duplicateTitle(title string) error {
	return common.ErrDuplicateRecipe.Wrap(fmt.Errorf("recipe %q already exists", strings.TrimSpace(title)))
}
