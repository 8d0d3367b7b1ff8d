package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// maxTxRetries 樂觀鎖衝突時的重試次數
const maxTxRetries = 10

// RedisStore 以 Redis 保存資料
//
// 食譜以 JSON 存於 <prefix>:recipe:<id>，另以集合記錄所有 ID，
// 並以雜湊保存標題索引、分類排序與食材目錄。
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 創建 Redis 儲存並測試連線
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.Prefix), nil
}

// NewRedisStoreWithClient 以既有連線建立 Redis 儲存
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "recipebook"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) recipeKey(id string) string {
	return fmt.Sprintf("%s:recipe:%s", s.prefix, id)
}

func (s *RedisStore) recipeIDsKey() string { return s.prefix + ":recipes" }
func (s *RedisStore) titleIndexKey() string { return s.prefix + ":recipe_titles" }
func (s *RedisStore) categoriesKey() string { return s.prefix + ":categories" }
func (s *RedisStore) ingredientsKey() string { return s.prefix + ":ingredients" }

// GetRecipe 依 ID 取得食譜
func (s *RedisStore) GetRecipe(ctx context.Context, id string) (*common.Recipe, error) {
	data, err := s.client.Get(ctx, s.recipeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return decodeRecipe(data)
}

// ListRecipes 依建立時間列出所有食譜
func (s *RedisStore) ListRecipes(ctx context.Context) ([]*common.Recipe, error) {
	ids, err := s.client.SMembers(ctx, s.recipeIDsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recipe ids: %w", err)
	}
	if len(ids) == 0 {
		return []*common.Recipe{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recipeKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	out := make([]*common.Recipe, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// 集合與資料不一致時略過
			continue
		}
		recipe, err := decodeRecipe([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, recipe)
	}
	sortRecipes(out)
	return out, nil
}

// FindRecipeByTitle 依標題（不分大小寫）查找食譜
func (s *RedisStore) FindRecipeByTitle(ctx context.Context, title string) (*common.Recipe, error) {
	id, err := s.client.HGet(ctx, s.titleIndexKey(), common.TitleKey(title)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to lookup title: %w", err)
	}
	return s.GetRecipe(ctx, id)
}

// SaveRecipe 新增或覆寫食譜，並同步標題索引
//
// 以 WATCH 監看標題索引與食譜鍵，標題已屬於其他食譜時回傳 ErrDuplicateRecipe。
func (s *RedisStore) SaveRecipe(ctx context.Context, recipe *common.Recipe) error {
	data, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	titleKey := common.TitleKey(recipe.Title)
	txf := func(tx *redis.Tx) error {
		owner, err := tx.HGet(ctx, s.titleIndexKey(), titleKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to lookup title: %w", err)
		}
		if err == nil && owner != recipe.ID {
			return duplicateTitle(recipe.Title)
		}

		var previous *common.Recipe
		raw, err := tx.Get(ctx, s.recipeKey(recipe.ID)).Bytes()
		switch {
		case err == nil:
			if previous, err = decodeRecipe(raw); err != nil {
				return err
			}
		case !errors.Is(err, redis.Nil):
			return fmt.Errorf("failed to get recipe: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if previous != nil && common.TitleKey(previous.Title) != titleKey {
				pipe.HDel(ctx, s.titleIndexKey(), common.TitleKey(previous.Title))
			}
			pipe.Set(ctx, s.recipeKey(recipe.ID), data, 0)
			pipe.SAdd(ctx, s.recipeIDsKey(), recipe.ID)
			pipe.HSet(ctx, s.titleIndexKey(), titleKey, recipe.ID)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err = s.client.Watch(ctx, txf, s.titleIndexKey(), s.recipeKey(recipe.ID))
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, common.ErrDuplicateRecipe) {
			return err
		}
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

// DeleteRecipe 刪除食譜
func (s *RedisStore) DeleteRecipe(ctx context.Context, id string) error {
	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.recipeKey(id))
		pipe.SRem(ctx, s.recipeIDsKey(), id)
		pipe.HDel(ctx, s.titleIndexKey(), common.TitleKey(recipe.Title))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

// ListCategories 依排序值列出分類
func (s *RedisStore) ListCategories(ctx context.Context) ([]common.Category, error) {
	fields, err := s.client.HGetAll(ctx, s.categoriesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	out := make([]common.Category, 0, len(fields))
	for name, raw := range fields {
		priority, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid priority for category %s: %w", name, err)
		}
		out = append(out, common.Category{Name: name, Priority: priority})
	}
	sortCategories(out)
	return out, nil
}

// SaveCategory 新增或更新分類
func (s *RedisStore) SaveCategory(ctx context.Context, category common.Category) error {
	if err := s.client.HSet(ctx, s.categoriesKey(), category.Name, category.Priority).Err(); err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

// ListIngredients 依名稱列出食材目錄
func (s *RedisStore) ListIngredients(ctx context.Context) ([]common.CatalogIngredient, error) {
	fields, err := s.client.HGetAll(ctx, s.ingredientsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}

	out := make([]common.CatalogIngredient, 0, len(fields))
	for name, category := range fields {
		out = append(out, common.CatalogIngredient{Name: name, Category: category})
	}
	sortIngredients(out)
	return out, nil
}

// SaveIngredient 新增或更新食材目錄項目
func (s *RedisStore) SaveIngredient(ctx context.Context, ingredient common.CatalogIngredient) error {
	if err := s.client.HSet(ctx, s.ingredientsKey(), ingredient.Name, ingredient.Category).Err(); err != nil {
		return fmt.Errorf("failed to save ingredient: %w", err)
	}
	return nil
}

// Reset 刪除此前綴下的所有資料
func (s *RedisStore) Reset(ctx context.Context) error {
	ids, err := s.client.SMembers(ctx, s.recipeIDsKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to list recipe ids: %w", err)
	}

	keys := []string{s.recipeIDsKey(), s.titleIndexKey(), s.categoriesKey(), s.ingredientsKey()}
	for _, id := range ids {
		keys = append(keys, s.recipeKey(id))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	return nil
}

// Ping 檢查 Redis 連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeRecipe(data []byte) (*common.Recipe, error) {
	var recipe common.Recipe
	if err := json.Unmarshal(data, &recipe); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe: %w", err)
	}
	return &recipe, nil
}
