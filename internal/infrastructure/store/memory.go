package store

import (
	"context"
	"sort"
	"sync"

	"recipe-book/internal/pkg/common"
)

// MemoryStore 以記憶體保存資料，適合開發與測試
type MemoryStore struct {
	mu          sync.RWMutex
	recipes     map[string]*common.Recipe
	categories  map[string]int
	ingredients map[string]string
}

// NewMemoryStore 創建記憶體儲存
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.recipes = make(map[string]*common.Recipe)
	s.categories = make(map[string]int)
	s.ingredients = make(map[string]string)
}

// GetRecipe 依 ID 取得食譜
func (s *MemoryStore) GetRecipe(ctx context.Context, id string) (*common.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipe, ok := s.recipes[id]
	if !ok {
		return nil, common.ErrRecipeNotFound
	}
	return recipe.Clone(), nil
}

// ListRecipes 依建立時間列出所有食譜
func (s *MemoryStore) ListRecipes(ctx context.Context) ([]*common.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*common.Recipe, 0, len(s.recipes))
	for _, recipe := range s.recipes {
		out = append(out, recipe.Clone())
	}
	sortRecipes(out)
	return out, nil
}

// FindRecipeByTitle 依標題（不分大小寫）查找食譜
func (s *MemoryStore) FindRecipeByTitle(ctx context.Context, title string) (*common.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := common.TitleKey(title)
	for _, recipe := range s.recipes {
		if common.TitleKey(recipe.Title) == key {
			return recipe.Clone(), nil
		}
	}
	return nil, common.ErrRecipeNotFound
}

// SaveRecipe 新增或覆寫食譜，標題已屬於其他食譜時回傳 ErrDuplicateRecipe
func (s *MemoryStore) SaveRecipe(ctx context.Context, recipe *common.Recipe) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := common.TitleKey(recipe.Title)
	for id, existing := range s.recipes {
		if id != recipe.ID && common.TitleKey(existing.Title) == key {
			return duplicateTitle(recipe.Title)
		}
	}
	s.recipes[recipe.ID] = recipe.Clone()
	return nil
}

// DeleteRecipe 刪除食譜
func (s *MemoryStore) DeleteRecipe(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return common.ErrRecipeNotFound
	}
	delete(s.recipes, id)
	return nil
}

// ListCategories 依排序值列出分類
func (s *MemoryStore) ListCategories(ctx context.Context) ([]common.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.Category, 0, len(s.categories))
	for name, priority := range s.categories {
		out = append(out, common.Category{Name: name, Priority: priority})
	}
	sortCategories(out)
	return out, nil
}

// SaveCategory 新增或更新分類
func (s *MemoryStore) SaveCategory(ctx context.Context, category common.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories[category.Name] = category.Priority
	return nil
}

// ListIngredients 依名稱列出食材目錄
func (s *MemoryStore) ListIngredients(ctx context.Context) ([]common.CatalogIngredient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]common.CatalogIngredient, 0, len(s.ingredients))
	for name, category := range s.ingredients {
		out = append(out, common.CatalogIngredient{Name: name, Category: category})
	}
	sortIngredients(out)
	return out, nil
}

// SaveIngredient 新增或更新食材目錄項目
func (s *MemoryStore) SaveIngredient(ctx context.Context, ingredient common.CatalogIngredient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ingredients[ingredient.Name] = ingredient.Category
	return nil
}

// Reset 清空所有資料
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// Ping 記憶體儲存永遠可用
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close 無需釋放資源
func (s *MemoryStore) Close() error {
	return nil
}

// sortRecipes 依建立時間排序，相同時依 ID
func sortRecipes(recipes []*common.Recipe) {
	sort.Slice(recipes, func(i, j int) bool {
		if !recipes[i].CreatedAt.Equal(recipes[j].CreatedAt) {
			return recipes[i].CreatedAt.Before(recipes[j].CreatedAt)
		}
		return recipes[i].ID < recipes[j].ID
	})
}

// sortCategories 依排序值排序，相同時依名稱
func sortCategories(categories []common.Category) {
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Priority != categories[j].Priority {
			return categories[i].Priority < categories[j].Priority
		}
		return categories[i].Name < categories[j].Name
	})
}

func sortIngredients(ingredients []common.CatalogIngredient) {
	sort.Slice(ingredients, func(i, j int) bool { return ingredients[i].Name < ingredients[j].Name })
}
