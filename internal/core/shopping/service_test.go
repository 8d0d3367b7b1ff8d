package shopping

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource 測試用食譜與分類來源
type fakeSource struct {
	mu         sync.Mutex
	recipes    map[string]*common.Recipe
	priorities map[string]int
	delay      time.Duration
	err        error
	calls      int
}

func (f *fakeSource) GetRecipe(ctx context.Context, id string) (*common.Recipe, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	recipe, ok := f.recipes[id]
	if !ok {
		return nil, common.ErrRecipeNotFound
	}
	return recipe.Clone(), nil
}

func (f *fakeSource) Priorities(ctx context.Context) (map[string]int, error) {
	return f.priorities, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		recipes: map[string]*common.Recipe{
			"pancakes": {ID: "pancakes", Serves: 2, Ingredients: []common.Ingredient{
				{Name: "Jahu", Amount: "200", Unit: "g", Category: "Kuivained"},
				{Name: "Piim", Amount: "500", Unit: "ml", Category: "Piimatooted"},
				{Name: "Muna", Amount: "2", Unit: "tk", Category: "Piimatooted"},
				{Name: "Sool", Amount: "näpuotsaga", Unit: "", Category: "Maitseained"},
			}},
			"bread": {ID: "bread", Serves: 1, Ingredients: []common.Ingredient{
				{Name: "Jahu", Amount: "0.8", Unit: "kg", Category: "Kuivained"},
				{Name: "Pärm", Amount: "0.5", Unit: "prk", Category: "Külmutatud"},
			}},
			"broken": {ID: "broken", Serves: 0, Ingredients: []common.Ingredient{
				{Name: "Vesi", Amount: "1", Unit: "l"},
			}},
		},
		priorities: map[string]int{"Piimatooted": 0, "Kuivained": 1},
	}
}

func TestBuild_AggregatesAndSorts(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src, src, Options{DefaultPriority: DefaultPriority})

	items, err := svc.Build(context.Background(), []Request{
		{RecipeID: "pancakes", TargetServes: 4},
		{RecipeID: "bread", TargetServes: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, []Item{
		{Name: "Piim", TotalAmount: 1, Unit: "l"},
		{Name: "Muna", TotalAmount: 4, Unit: "tk"},
		{Name: "Jahu", TotalAmount: 1, Unit: "kg"},
		{Name: "Pärm", TotalAmount: 1, Unit: "prk"},
	}, items)
}

func TestBuild_SkipsMissingRecipeByDefault(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src, src, Options{DefaultPriority: DefaultPriority})

	items, err := svc.Build(context.Background(), []Request{
		{RecipeID: "bread", TargetServes: 2},
		{RecipeID: "stale-id", TargetServes: 2},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, Item{Name: "Jahu", TotalAmount: 2, Unit: "kg"}, items[0])
}

func TestBuild_MissingRecipeFailPolicy(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src, src, Options{DefaultPriority: DefaultPriority, MissingRecipePolicy: config.PolicyFail})

	_, err := svc.Build(context.Background(), []Request{{RecipeID: "stale-id", TargetServes: 2}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrRecipeNotFound))
}

func TestBuild_InvalidServingsFailsByDefault(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src, src, Options{DefaultPriority: DefaultPriority})

	_, err := svc.Build(context.Background(), []Request{
		{RecipeID: "bread", TargetServes: 1},
		{RecipeID: "broken", TargetServes: 2},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidServings))
}

func TestBuild_InvalidServingsSkipPolicy(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src, src, Options{DefaultPriority: DefaultPriority, InvalidServingsPolicy: config.PolicySkip})

	items, err := svc.Build(context.Background(), []Request{
		{RecipeID: "bread", TargetServes: 1},
		{RecipeID: "broken", TargetServes: 2},
	})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestBuild_StoreErrorFailsWholeRequest(t *testing.T) {
	src := newFakeSource()
	src.err = errors.New("connection refused")
	svc := NewService(src, src, Options{DefaultPriority: DefaultPriority})

	_, err := svc.Build(context.Background(), []Request{{RecipeID: "bread", TargetServes: 1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStore))
	assert.ErrorContains(t, err, "connection refused")
}

func TestBuild_TimeoutFailsWholeRequest(t *testing.T) {
	src := newFakeSource()
	src.delay = time.Second
	svc := NewService(src, src, Options{DefaultPriority: DefaultPriority, FetchTimeout: 20 * time.Millisecond})

	_, err := svc.Build(context.Background(), []Request{
		{RecipeID: "bread", TargetServes: 1},
		{RecipeID: "pancakes", TargetServes: 1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrGatewayTimeout))
}

func TestBuild_ValidatesRequests(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src, src, Options{DefaultPriority: DefaultPriority})

	_, err := svc.Build(context.Background(), []Request{{RecipeID: "bread", TargetServes: 0}})
	assert.True(t, common.IsValidationError(err))

	_, err = svc.Build(context.Background(), []Request{{RecipeID: " ", TargetServes: 1}})
	assert.True(t, common.IsValidationError(err))
	assert.Equal(t, 0, src.calls)
}

func TestBuild_EmptyRequest(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src, src, Options{DefaultPriority: DefaultPriority})

	items, err := svc.Build(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBuild_ZeroDefaultPriority(t *testing.T) {
	src := newFakeSource()
	svc := NewService(src, src, Options{DefaultPriority: 0})

	items, err := svc.Build(context.Background(), []Request{
		{RecipeID: "pancakes", TargetServes: 4},
		{RecipeID: "bread", TargetServes: 1},
	})
	require.NoError(t, err)

	// 未排序的分類與排序值 0 的分類並列，保持彙總順序
	assert.Equal(t, []Item{
		{Name: "Piim", TotalAmount: 1, Unit: "l"},
		{Name: "Muna", TotalAmount: 4, Unit: "tk"},
		{Name: "Pärm", TotalAmount: 1, Unit: "prk"},
		{Name: "Jahu", TotalAmount: 1, Unit: "kg"},
	}, items)
}
