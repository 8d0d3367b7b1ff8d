package common

import (
	"fmt"
	"strings"
	"time"
)

// DefaultCategory 未指定分類時使用的分類
const DefaultCategory = "Other"

// UnsortedPriority 未知分類的排序值（排在最後）
const UnsortedPriority = 9999

// Ingredient 食材
type Ingredient struct {
	Name     string `json:"name" yaml:"name"`
	Amount   string `json:"amount" yaml:"amount"`
	Unit     string `json:"unit" yaml:"unit"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	SortID   int    `json:"sortID,omitempty" yaml:"sortID,omitempty"`
}

// RatingValue 評分值
type RatingValue string

const (
	RatingYes RatingValue = "JAH"
	RatingNo  RatingValue = "EI"
	RatingMeh RatingValue = "MEH"
)

// Valid 檢查評分值是否合法
func (v RatingValue) Valid() bool {
	switch v {
	case RatingYes, RatingNo, RatingMeh:
		return true
	}
	return false
}

// Rating 使用者評分
type Rating struct {
	User  string      `json:"user" yaml:"user"`
	Value RatingValue `json:"value" yaml:"value"`
}

// Recipe 食譜
type Recipe struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Tutorial    string       `json:"tutorial" yaml:"tutorial"`
	Serves      int          `json:"serves" yaml:"serves"`
	Category    string       `json:"category,omitempty" yaml:"category,omitempty"`
	CreatedAt   time.Time    `json:"createdAt" yaml:"createdAt"`
	Tags        []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
	Ratings     []Rating     `json:"ratings,omitempty" yaml:"ratings,omitempty"`
	Ingredients []Ingredient `json:"ingredients" yaml:"ingredients"`
}

// Clone 深拷貝食譜，避免呼叫端修改儲存層的資料
func (r *Recipe) Clone() *Recipe {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Tags = append([]string(nil), r.Tags...)
	cp.Ratings = append([]Rating(nil), r.Ratings...)
	cp.Ingredients = append([]Ingredient(nil), r.Ingredients...)
	return &cp
}

// RecipeInput 新增或更新食譜的輸入
type RecipeInput struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description"`
	Tutorial    string       `json:"tutorial"`
	Category    string       `json:"category"`
	Serves      int          `json:"serves" binding:"required"`
	Tags        []string     `json:"tags,omitempty"`
	Ingredients []Ingredient `json:"ingredients" binding:"required"`
}

// Category 商店分類與排序值
type Category struct {
	Name     string `json:"name" yaml:"name"`
	Priority int    `json:"priority" yaml:"priority"`
}

// CatalogIngredient 食材目錄項目
type CatalogIngredient struct {
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
}

// TitleKey 食譜標題比對用的鍵
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// FormatIngredients 格式化食材列表
func FormatIngredients(ingredients []Ingredient) string {
	var sb strings.Builder
	for _, ing := range ingredients {
		sb.WriteString(fmt.Sprintf("- %s: %s %s (%s)\n",
			ing.Name, ing.Amount, ing.Unit, ing.Category))
	}
	return sb.String()
}
