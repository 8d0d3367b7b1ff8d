package recipe

import (
	"context"
	"fmt"
	"strings"
	"time"

	aiservice "recipe-book/internal/core/ai/service"
	"recipe-book/internal/pkg/common"

	"go.uber.org/zap"
)

// Processor 處理 AI 請求
type Processor interface {
	ProcessRequest(ctx context.Context, prompt string) (*aiservice.Response, error)
}

// Generator AI 食譜生成服務
type Generator struct {
	ai         Processor
	categories CategoryRegistry
	now        func() time.Time
}

// NewGenerator 創建 AI 食譜生成服務；ai 為 nil 時僅能使用 mock
func NewGenerator(ai Processor, categories CategoryRegistry) *Generator {
	return &Generator{
		ai:         ai,
		categories: categories,
		now:        time.Now,
	}
}

// generatedRecipe 模型回傳的 JSON 結構
type generatedRecipe struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Tutorial    string              `json:"tutorial"`
	Serves      int                 `json:"serves"`
	Category    string              `json:"category"`
	Tags        []string            `json:"tags"`
	Ingredients []common.Ingredient `json:"ingredients"`
}

// Generate 依查詢產生食譜，不會自動保存
//
// 食材中出現的新分類會登錄至分類目錄。mock 為 true 時回傳固定範例，不呼叫模型。
func (g *Generator) Generate(ctx context.Context, query string, mock bool) (*common.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, common.NewValidationError("query is required")
	}

	var recipe *common.Recipe
	if mock {
		recipe = mockRecipe()
	} else {
		if g.ai == nil {
			return nil, common.ErrServiceUnavailable.Wrap(fmt.Errorf("AI generation is disabled"))
		}
		generated, err := g.generate(ctx, query)
		if err != nil {
			return nil, err
		}
		recipe = generated
	}

	recipe.ID = common.GenerateUUID()
	recipe.CreatedAt = g.now().UTC()
	if recipe.Category == "" {
		recipe.Category = common.DefaultCategory
	}
	recipe.Ratings = []common.Rating{}
	normalizeIngredients(recipe.Ingredients)

	if g.categories != nil {
		names := make([]string, 0, len(recipe.Ingredients))
		for _, ing := range recipe.Ingredients {
			names = append(names, ing.Category)
		}
		if err := g.categories.Ensure(ctx, names...); err != nil {
			return nil, err
		}
	}

	return recipe, nil
}

func (g *Generator) generate(ctx context.Context, query string) (*common.Recipe, error) {
	var existing []string
	if g.categories != nil {
		categories, err := g.categories.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range categories {
			existing = append(existing, c.Name)
		}
	}

	resp, err := g.ai.ProcessRequest(ctx, buildPrompt(query, existing))
	if err != nil {
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("empty AI response"))
	}

	content := common.ExtractJSONObject(resp.Content)
	common.LogDebug("AI 回應內容 (recipe/generate)",
		zap.Int("ai_response_length", len(content)),
		zap.Bool("cache_hit", resp.CacheHit),
	)

	var result generatedRecipe
	if err := common.ParseJSON(content, &result); err != nil {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("failed to parse AI response: %w", err))
	}

	if strings.TrimSpace(result.Title) == "" {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("AI response has no title"))
	}
	if len(result.Ingredients) == 0 {
		return nil, common.ErrAIServiceError.Wrap(fmt.Errorf("AI response has no ingredients"))
	}

	return &common.Recipe{
		Title:       strings.TrimSpace(result.Title),
		Description: result.Description,
		Tutorial:    result.Tutorial,
		Serves:      result.Serves,
		Category:    result.Category,
		Tags:        result.Tags,
		Ingredients: result.Ingredients,
	}, nil
}

func buildPrompt(query string, categories []string) string {
	return fmt.Sprintf(`Genereeri järgmise toidu retsept: "%s".
Olemasolevad kategooriad: %s.
Iga koostisosal peab olema kategooria.
Kui mõni koostisosa ei sobi olemasolevatesse, paku uus sobiv kategooria.
Kogus ("amount") peab olema number tekstina, ühik ("unit") üks järgmistest: g, kg, ml, l, tk, prk.
Tagasta ainult järgmises JSON-formaadis:
{
  "title": "retsepti nimi",
  "description": "lühike kirjeldus",
  "tutorial": "valmistamise sammud",
  "serves": 4,
  "ingredients": [
    {"name": "...", "amount": "...", "unit": "...", "category": "..."}
  ]
}`, query, strings.Join(categories, ", "))
}

// mockRecipe 固定的範例食譜，用於開發與測試
func mockRecipe() *common.Recipe {
	return &common.Recipe{
		Title:       "Hakklihakaste kartulitega",
		Description: "Klassikaline kodune roog, mis sobib igapäevaseks lõunaks.",
		Tutorial:    "Koori ja keeda kartulid. Pruunista hakkliha ja sibul pannil, lisa jahu ning piim, keeda kuni pakseneb. Serveeri koos kartulitega.",
		Serves:      4,
		Category:    "Muu",
		Tags:        []string{"kiire", "kodune", "liha"},
		Ingredients: []common.Ingredient{
			{Name: "Hakkliha", Amount: "400", Unit: "g", Category: "Liha"},
			{Name: "Sibul", Amount: "1", Unit: "tk", Category: "Köögivili"},
			{Name: "Piim", Amount: "300", Unit: "ml", Category: "Piimatooted"},
			{Name: "Jahu", Amount: "1", Unit: "spl", Category: "Muu"},
			{Name: "Kartul", Amount: "5", Unit: "tk", Category: "Köögivili"},
		},
	}
}
