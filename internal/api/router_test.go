package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-book/internal/app"
	"recipe-book/internal/core/shopping"
	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/infrastructure/store"
	"recipe-book/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Name: "recipe-book", Version: "test", Debug: true},
		Server:      config.ServerConfig{RequestTimeout: 5 * time.Second, MaxBodyBytes: 1 << 20},
		Store:       config.StoreConfig{Driver: "memory"},
		DedupWindow: time.Nanosecond,
		Shopping: config.ShoppingConfig{
			MissingRecipePolicy:   config.PolicySkip,
			InvalidServingsPolicy: config.PolicyFail,
			DefaultPriority:       99,
			TodoVerb:              "Osta",
		},
		Catalog: config.CatalogConfig{NewCategoryPriority: 9999, SearchLimit: 100},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	a := app.NewWithStore(testConfig(), store.NewMemoryStore())
	t.Cleanup(func() { _ = a.Close() })
	return SetupRouter(a)
}

func request(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func pancakes() common.RecipeInput {
	return common.RecipeInput{
		Title:  "Pannkoogid",
		Serves: 2,
		Ingredients: []common.Ingredient{
			{Name: "Jahu", Amount: "200", Unit: "g", Category: "Kuivained"},
			{Name: "Piim", Amount: "500", Unit: "ml", Category: "Piimatooted"},
			{Name: "Muna", Amount: "2", Unit: "tk"},
		},
	}
}

func createRecipe(t *testing.T, r http.Handler, input common.RecipeInput) common.Recipe {
	t.Helper()
	w := request(t, r, http.MethodPost, "/api/v1/recipes", input)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[common.Recipe](t, w)
}

func TestRecipeLifecycle(t *testing.T) {
	r := newTestRouter(t)
	created := createRecipe(t, r, pancakes())
	assert.NotEmpty(t, created.ID)

	w := request(t, r, http.MethodGet, "/api/v1/recipes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pannkoogid", decode[common.Recipe](t, w).Title)

	w = request(t, r, http.MethodPost, "/api/v1/recipes", pancakes())
	assert.Equal(t, http.StatusConflict, w.Code)

	w = request(t, r, http.MethodGet, "/api/v1/recipes?query=jahu&serves=4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[[]common.Recipe](t, w)
	require.Len(t, found, 1)
	assert.Equal(t, 4, found[0].Serves)
	assert.Equal(t, "400", found[0].Ingredients[0].Amount)

	update := pancakes()
	update.Description = "Paksud"
	w = request(t, r, http.MethodPut, "/api/v1/recipes/"+created.ID, update)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paksud", decode[common.Recipe](t, w).Description)

	w = request(t, r, http.MethodDelete, "/api/v1/recipes/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = request(t, r, http.MethodGet, "/api/v1/recipes/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, common.ErrCodeRecipeNotFound, decode[common.ErrorResponse](t, w).Code)
}

func TestRecipeValidation(t *testing.T) {
	r := newTestRouter(t)

	input := pancakes()
	input.Serves = 0
	w := request(t, r, http.MethodPost, "/api/v1/recipes", input)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(t, r, http.MethodGet, "/api/v1/recipes?serves=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRatings(t *testing.T) {
	r := newTestRouter(t)
	createRecipe(t, r, pancakes())

	rating := map[string]string{"title": "Pannkoogid", "user": "mari", "value": "JAH"}
	w := request(t, r, http.MethodPost, "/api/v1/recipes/ratings", rating)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode[common.Recipe](t, w).Ratings, 1)

	w = request(t, r, http.MethodPost, "/api/v1/recipes/ratings", rating)
	assert.Equal(t, http.StatusConflict, w.Code)

	rating["value"] = "EI"
	w = request(t, r, http.MethodPut, "/api/v1/recipes/ratings", rating)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, common.RatingNo, decode[common.Recipe](t, w).Ratings[0].Value)

	rating["value"] = "SUPER"
	w = request(t, r, http.MethodPut, "/api/v1/recipes/ratings", rating)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate(t *testing.T) {
	r := newTestRouter(t)

	w := request(t, r, http.MethodPost, "/api/v1/recipes/generate", map[string]any{"query": "kaste", "mock": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Hakklihakaste kartulitega", decode[common.Recipe](t, w).Title)

	w = request(t, r, http.MethodPost, "/api/v1/recipes/generate", map[string]any{"query": "kaste"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCategoriesAndIngredients(t *testing.T) {
	r := newTestRouter(t)

	w := request(t, r, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Puuviljad", "priority": 0})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = request(t, r, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Puuviljad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(t, r, http.MethodPost, "/api/v1/ingredients", map[string]any{"name": "Õun", "category": "Puuviljad"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = request(t, r, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []common.Category{{Name: "Puuviljad", Priority: 0}}, decode[[]common.Category](t, w))

	w = request(t, r, http.MethodGet, "/api/v1/ingredients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []common.CatalogIngredient{{Name: "Õun", Category: "Puuviljad"}}, decode[[]common.CatalogIngredient](t, w))
}

func TestShoppingList(t *testing.T) {
	r := newTestRouter(t)
	created := createRecipe(t, r, pancakes())

	for name, priority := range map[string]int{"Piimatooted": 0, "Kuivained": 1} {
		w := request(t, r, http.MethodPost, "/api/v1/categories", map[string]any{"name": name, "priority": priority})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	body := map[string]any{"recipes": []map[string]any{
		{"id": created.ID, "targetServes": 4},
		{"id": "missing", "targetServes": 2},
	}}
	w := request(t, r, http.MethodPost, "/api/v1/shopping-list", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []shopping.Item{
		{Name: "Piim", TotalAmount: 1, Unit: "l"},
		{Name: "Jahu", TotalAmount: 400, Unit: "g"},
		{Name: "Muna", TotalAmount: 4, Unit: "tk"},
	}, decode[[]shopping.Item](t, w))

	w = request(t, r, http.MethodPost, "/api/v1/shopping-list/todo", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Osta 1 l Piim\nOsta 400 g Jahu\nOsta 4 tk Muna", w.Body.String())

	w = request(t, r, http.MethodPost, "/api/v1/shopping-list", map[string]any{"recipes": []any{}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]shopping.Item](t, w))

	w = request(t, r, http.MethodPost, "/api/v1/shopping-list", map[string]any{"recipes": []map[string]any{{"id": created.ID, "targetServes": 0}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := request(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"memory"`)

	w = request(t, r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(t, r, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
