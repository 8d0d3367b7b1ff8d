package category

import (
	"context"
	"testing"

	"recipe-book/internal/infrastructure/store"
	"recipe-book/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	repo := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, repo.SaveCategory(ctx, common.Category{Name: "Köögivili", Priority: 0}))
	require.NoError(t, repo.SaveCategory(ctx, common.Category{Name: "Piimatooted", Priority: 1}))
	return NewService(repo, common.UnsortedPriority), repo
}

func TestPriorities(t *testing.T) {
	svc, _ := newTestService(t)

	priorities, err := svc.Priorities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Köögivili": 0, "Piimatooted": 1}, priorities)
}

func TestEnsure_RegistersOnlyUnknown(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Ensure(ctx, "Piimatooted", "Maitseained", " ", "Maitseained"))

	categories, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Category{
		{Name: "Köögivili", Priority: 0},
		{Name: "Piimatooted", Priority: 1},
		{Name: "Maitseained", Priority: common.UnsortedPriority},
	}, categories)
}

func TestEnsure_ZeroNewPriority(t *testing.T) {
	repo := store.NewMemoryStore()
	svc := NewService(repo, 0)
	ctx := context.Background()

	require.NoError(t, svc.Ensure(ctx, "Maitseained"))

	priorities, err := svc.Priorities(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Maitseained": 0}, priorities)
}

func TestAdd_Validates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, "  ", 1)
	assert.True(t, common.IsValidationError(err))

	_, err = svc.Add(ctx, "Liha", -1)
	assert.True(t, common.IsValidationError(err))

	c, err := svc.Add(ctx, " Liha ", 3)
	require.NoError(t, err)
	assert.Equal(t, common.Category{Name: "Liha", Priority: 3}, c)
}

func TestAddIngredient_DefaultsAndRegistersCategory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ing, err := svc.AddIngredient(ctx, "Sool", "")
	require.NoError(t, err)
	assert.Equal(t, common.DefaultCategory, ing.Category)

	_, err = svc.AddIngredient(ctx, "Kanafilee", "Liha")
	require.NoError(t, err)

	priorities, err := svc.Priorities(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.UnsortedPriority, priorities["Liha"])
	assert.Equal(t, common.UnsortedPriority, priorities[common.DefaultCategory])

	ingredients, err := svc.Ingredients(ctx)
	require.NoError(t, err)
	assert.Len(t, ingredients, 2)
}

func TestRegisterIngredients_KeepsExistingCategory(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.SaveIngredient(ctx, common.CatalogIngredient{Name: "Piim", Category: "Piimatooted"}))

	err := svc.RegisterIngredients(ctx, []common.Ingredient{
		{Name: "Piim", Category: "Joogid"},
		{Name: "Porgand", Category: "Köögivili"},
	})
	require.NoError(t, err)

	ingredients, err := svc.Ingredients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.CatalogIngredient{
		{Name: "Piim", Category: "Piimatooted"},
		{Name: "Porgand", Category: "Köögivili"},
	}, ingredients)

	priorities, err := svc.Priorities(ctx)
	require.NoError(t, err)
	assert.Contains(t, priorities, "Joogid")
}
