package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-book/internal/core/shopping"
	"recipe-book/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultSearchLimit 搜尋結果上限
const DefaultSearchLimit = 100

// Service 食譜目錄服務
type Service struct {
	repo        Repository
	categories  CategoryRegistry
	searchLimit int
	now         func() time.Time
}

// NewService 創建新的食譜服務
func NewService(repo Repository, categories CategoryRegistry, searchLimit int) *Service {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	return &Service{
		repo:        repo,
		categories:  categories,
		searchLimit: searchLimit,
		now:         time.Now,
	}
}

// Search 搜尋食譜；targetServes 大於 0 時回傳依份量縮放後的副本
//
// 查詢字串不分大小寫，比對標題、描述與食材名稱。
func (s *Service) Search(ctx context.Context, query string, targetServes int) ([]*common.Recipe, error) {
	if targetServes < 0 {
		return nil, common.NewValidationError(fmt.Sprintf("serves must not be negative, got %d", targetServes))
	}

	all, err := s.repo.ListRecipes(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]*common.Recipe, 0, len(all))
	for _, recipe := range all {
		if len(out) >= s.searchLimit {
			break
		}
		if needle != "" && !matches(recipe, needle) {
			continue
		}

		if targetServes > 0 && recipe.Serves > 0 {
			scaled, err := shopping.ScaleRecipe(recipe, targetServes)
			if err != nil {
				return nil, err
			}
			recipe = scaled
		}
		out = append(out, recipe)
	}
	return out, nil
}

func matches(recipe *common.Recipe, needle string) bool {
	if strings.Contains(strings.ToLower(recipe.Title), needle) ||
		strings.Contains(strings.ToLower(recipe.Description), needle) {
		return true
	}
	for _, ing := range recipe.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), needle) {
			return true
		}
	}
	return false
}

// Get 依 ID 取得食譜
func (s *Service) Get(ctx context.Context, id string) (*common.Recipe, error) {
	return s.repo.GetRecipe(ctx, id)
}

// Create 新增食譜，標題重複時回傳 ErrDuplicateRecipe
func (s *Service) Create(ctx context.Context, input common.RecipeInput) (*common.Recipe, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueTitle(ctx, input.Title, ""); err != nil {
		return nil, err
	}

	recipe := buildRecipe(input)
	recipe.ID = common.GenerateUUID()
	recipe.CreatedAt = s.now().UTC()

	if err := s.save(ctx, recipe); err != nil {
		return nil, err
	}

	common.LogInfo("Recipe created",
		zap.String("recipe_id", recipe.ID),
		zap.String("title", recipe.Title),
	)
	return recipe, nil
}

// Update 以輸入內容覆寫食譜，保留 ID、建立時間與評分
func (s *Service) Update(ctx context.Context, id string, input common.RecipeInput) (*common.Recipe, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueTitle(ctx, input.Title, id); err != nil {
		return nil, err
	}

	recipe := buildRecipe(input)
	recipe.ID = existing.ID
	recipe.CreatedAt = existing.CreatedAt
	recipe.Ratings = existing.Ratings

	if err := s.save(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete 刪除食譜
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	common.LogInfo("Recipe deleted", zap.String("recipe_id", id))
	return nil
}

// Import 保存已有 ID 的食譜（例如種子資料），同樣登錄分類與食材
func (s *Service) Import(ctx context.Context, recipe *common.Recipe) error {
	if recipe.ID == "" {
		recipe.ID = common.GenerateUUID()
	}
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = s.now().UTC()
	}
	normalizeIngredients(recipe.Ingredients)
	if recipe.Category == "" {
		recipe.Category = common.DefaultCategory
	}
	return s.save(ctx, recipe)
}

func (s *Service) save(ctx context.Context, recipe *common.Recipe) error {
	if s.categories != nil {
		if err := s.categories.RegisterIngredients(ctx, recipe.Ingredients); err != nil {
			return err
		}
	}
	return s.repo.SaveRecipe(ctx, recipe)
}

func (s *Service) ensureUniqueTitle(ctx context.Context, title, selfID string) error {
	existing, err := s.repo.FindRecipeByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, common.ErrRecipeNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return common.ErrDuplicateRecipe.Wrap(fmt.Errorf("recipe %q already exists", strings.TrimSpace(title)))
}

func validateInput(input common.RecipeInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return common.NewValidationError("title is required")
	}
	if input.Serves <= 0 {
		return common.NewValidationError(fmt.Sprintf("serves must be a positive integer, got %d", input.Serves))
	}
	if len(input.Ingredients) == 0 {
		return common.NewValidationError("at least one ingredient is required")
	}
	for i, ing := range input.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return common.NewValidationError(fmt.Sprintf("ingredients[%d]: name is required", i))
		}
	}
	return nil
}

func buildRecipe(input common.RecipeInput) *common.Recipe {
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = common.DefaultCategory
	}

	ingredients := append([]common.Ingredient(nil), input.Ingredients...)
	normalizeIngredients(ingredients)

	return &common.Recipe{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Tutorial:    input.Tutorial,
		Serves:      input.Serves,
		Category:    category,
		Tags:        append([]string(nil), input.Tags...),
		Ingredients: ingredients,
	}
}

func normalizeIngredients(ingredients []common.Ingredient) {
	for i := range ingredients {
		ingredients[i].Name = strings.TrimSpace(ingredients[i].Name)
		ingredients[i].Unit = strings.TrimSpace(ingredients[i].Unit)
		ingredients[i].Category = strings.TrimSpace(ingredients[i].Category)
		if ingredients[i].Category == "" {
			ingredients[i].Category = common.DefaultCategory
		}
	}
}
