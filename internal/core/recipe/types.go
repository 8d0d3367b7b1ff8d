package recipe

import (
	"context"

	"recipe-book/internal/pkg/common"
)

// Repository 食譜儲存介面
type Repository interface {
	GetRecipe(ctx context.Context, id string) (*common.Recipe, error)
	ListRecipes(ctx context.Context) ([]*common.Recipe, error)
	FindRecipeByTitle(ctx context.Context, title string) (*common.Recipe, error)
	SaveRecipe(ctx context.Context, recipe *common.Recipe) error
	DeleteRecipe(ctx context.Context, id string) error
}

// CategoryRegistry 登錄食譜使用到的分類與食材
type CategoryRegistry interface {
	List(ctx context.Context) ([]common.Category, error)
	Ensure(ctx context.Context, names ...string) error
	RegisterIngredients(ctx context.Context, ingredients []common.Ingredient) error
}

// RatingRequest 評分請求
type RatingRequest struct {
	Title string             `json:"title" binding:"required"`
	User  string             `json:"user" binding:"required"`
	Value common.RatingValue `json:"value" binding:"required"`
}

// GenerateRequest AI 生成食譜請求
type GenerateRequest struct {
	Query string `json:"query" binding:"required"`
	Mock  bool   `json:"mock"`
}
