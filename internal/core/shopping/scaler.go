package shopping

import (
	"fmt"
	"strings"

	"recipe-book/internal/pkg/common"
)

// Scale 依份量比例縮放食譜食材
//
// 比例為 targetServes / recipe.Serves。無法解析的數量原樣保留，單位與分類不變。
func Scale(recipe *common.Recipe, targetServes int) ([]common.Ingredient, error) {
	if recipe == nil {
		return nil, common.NewValidationError("recipe is required")
	}
	if targetServes <= 0 {
		return nil, common.NewValidationError(fmt.Sprintf("targetServes must be positive, got %d", targetServes))
	}
	if recipe.Serves <= 0 {
		return nil, common.ErrInvalidServings.Wrap(
			fmt.Errorf("recipe %q has serves=%d", recipe.ID, recipe.Serves))
	}

	factor := float64(targetServes) / float64(recipe.Serves)

	scaled := make([]common.Ingredient, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		out := ing
		out.Name = strings.TrimSpace(ing.Name)
		if out.Category == "" {
			out.Category = common.DefaultCategory
		}

		// factor 為 1 時保留原字串
		if factor != 1 {
			if numeric, ok := ParseAmount(ing.Amount); ok {
				out.Amount = FormatAmount(Round2(numeric * factor))
			}
		}
		scaled = append(scaled, out)
	}

	return scaled, nil
}

// ScaleRecipe 回傳縮放後的食譜副本，Serves 設為 targetServes
func ScaleRecipe(recipe *common.Recipe, targetServes int) (*common.Recipe, error) {
	ingredients, err := Scale(recipe, targetServes)
	if err != nil {
		return nil, err
	}
	out := recipe.Clone()
	out.Ingredients = ingredients
	out.Serves = targetServes
	return out, nil
}
