package category

import (
	"context"
	"fmt"
	"strings"

	"recipe-book/internal/pkg/common"

	"go.uber.org/zap"
)

// Repository 分類與食材目錄的儲存介面
type Repository interface {
	ListCategories(ctx context.Context) ([]common.Category, error)
	SaveCategory(ctx context.Context, category common.Category) error
	ListIngredients(ctx context.Context) ([]common.CatalogIngredient, error)
	SaveIngredient(ctx context.Context, ingredient common.CatalogIngredient) error
}

// Service 分類服務
type Service struct {
	repo        Repository
	newPriority int
}

// NewService 創建分類服務；newPriority 為自動登錄的新分類排序值
func NewService(repo Repository, newPriority int) *Service {
	return &Service{repo: repo, newPriority: newPriority}
}

// List 依排序值列出分類
func (s *Service) List(ctx context.Context) ([]common.Category, error) {
	return s.repo.ListCategories(ctx)
}

// Priorities 分類名稱對排序值
func (s *Service) Priorities(ctx context.Context) (map[string]int, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(categories))
	for _, c := range categories {
		out[c.Name] = c.Priority
	}
	return out, nil
}

// Ensure 登錄尚未存在的分類，已存在者保留原排序值
func (s *Service) Ensure(ctx context.Context, names ...string) error {
	existing, err := s.Priorities(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := existing[name]; ok {
			continue
		}
		if err := s.repo.SaveCategory(ctx, common.Category{Name: name, Priority: s.newPriority}); err != nil {
			return err
		}
		existing[name] = s.newPriority
		common.LogInfo("Registered new category",
			zap.String("category", name),
			zap.Int("priority", s.newPriority),
		)
	}
	return nil
}

// Add 新增或更新分類排序值
func (s *Service) Add(ctx context.Context, name string, priority int) (common.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.Category{}, common.NewValidationError("category name is required")
	}
	if priority < 0 {
		return common.Category{}, common.NewValidationError(fmt.Sprintf("priority must not be negative, got %d", priority))
	}

	category := common.Category{Name: name, Priority: priority}
	if err := s.repo.SaveCategory(ctx, category); err != nil {
		return common.Category{}, err
	}
	return category, nil
}

// Ingredients 列出食材目錄
func (s *Service) Ingredients(ctx context.Context) ([]common.CatalogIngredient, error) {
	return s.repo.ListIngredients(ctx)
}

// AddIngredient 新增食材目錄項目，未知分類會一併登錄
func (s *Service) AddIngredient(ctx context.Context, name, category string) (common.CatalogIngredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.CatalogIngredient{}, common.NewValidationError("ingredient name is required")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = common.DefaultCategory
	}

	if err := s.Ensure(ctx, category); err != nil {
		return common.CatalogIngredient{}, err
	}

	ingredient := common.CatalogIngredient{Name: name, Category: category}
	if err := s.repo.SaveIngredient(ctx, ingredient); err != nil {
		return common.CatalogIngredient{}, err
	}
	return ingredient, nil
}

// RegisterIngredients 登錄食譜中出現的分類與食材，已存在的食材不覆寫
func (s *Service) RegisterIngredients(ctx context.Context, ingredients []common.Ingredient) error {
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		names = append(names, ing.Category)
	}
	if err := s.Ensure(ctx, names...); err != nil {
		return err
	}

	known, err := s.repo.ListIngredients(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(known))
	for _, k := range known {
		seen[k.Name] = true
	}

	for _, ing := range ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" || seen[name] {
			continue
		}
		category := ing.Category
		if category == "" {
			category = common.DefaultCategory
		}
		if err := s.repo.SaveIngredient(ctx, common.CatalogIngredient{Name: name, Category: category}); err != nil {
			return err
		}
		seen[name] = true
	}
	return nil
}
