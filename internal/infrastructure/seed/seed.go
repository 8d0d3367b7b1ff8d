// Package seed 由 YAML 檔載入分類、食材目錄與食譜
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"recipe-book/internal/pkg/common"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Data 種子資料檔內容
type Data struct {
	Categories  []common.Category          `yaml:"categories"`
	Ingredients []common.CatalogIngredient `yaml:"ingredients"`
	Recipes     []common.Recipe            `yaml:"recipes"`
}

// Result 匯入筆數
type Result struct {
	Categories  int `json:"categories"`
	Ingredients int `json:"ingredients"`
	Recipes     int `json:"recipes"`
}

// CatalogWriter 寫入分類與食材目錄
type CatalogWriter interface {
	Add(ctx context.Context, name string, priority int) (common.Category, error)
	AddIngredient(ctx context.Context, name, category string) (common.CatalogIngredient, error)
}

// RecipeImporter 保存已有 ID 的食譜
type RecipeImporter interface {
	Import(ctx context.Context, recipe *common.Recipe) error
}

// Load 解析 YAML 種子資料，未知欄位視為錯誤
func Load(r io.Reader) (*Data, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var data Data
	if err := dec.Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return &data, nil
		}
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	if err := data.validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// LoadFile 讀取並解析種子資料檔
func LoadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (d *Data) validate() error {
	for i, c := range d.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("categories[%d]: name is required", i)
		}
	}
	for i, ing := range d.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("ingredients[%d]: name is required", i)
		}
	}
	titles := make(map[string]bool, len(d.Recipes))
	for i, r := range d.Recipes {
		key := common.TitleKey(r.Title)
		if key == "" {
			return fmt.Errorf("recipes[%d]: title is required", i)
		}
		if titles[key] {
			return fmt.Errorf("recipes[%d]: duplicate title %q", i, r.Title)
		}
		titles[key] = true
	}
	return nil
}

// Apply 依序寫入分類、食材與食譜
//
// 分類先於食譜寫入，因此種子檔中指定的排序值不會被食譜登錄的新分類覆蓋。
func Apply(ctx context.Context, data *Data, catalog CatalogWriter, recipes RecipeImporter) (Result, error) {
	var res Result

	for _, c := range data.Categories {
		if _, err := catalog.Add(ctx, c.Name, c.Priority); err != nil {
			return res, fmt.Errorf("category %q: %w", c.Name, err)
		}
		res.Categories++
	}

	for _, ing := range data.Ingredients {
		if _, err := catalog.AddIngredient(ctx, ing.Name, ing.Category); err != nil {
			return res, fmt.Errorf("ingredient %q: %w", ing.Name, err)
		}
		res.Ingredients++
	}

	for i := range data.Recipes {
		recipe := data.Recipes[i].Clone()
		if err := recipes.Import(ctx, recipe); err != nil {
			return res, fmt.Errorf("recipe %q: %w", recipe.Title, err)
		}
		res.Recipes++
	}

	common.LogInfo("Seed data applied",
		zap.Int("categories", res.Categories),
		zap.Int("ingredients", res.Ingredients),
		zap.Int("recipes", res.Recipes),
	)
	return res, nil
}
