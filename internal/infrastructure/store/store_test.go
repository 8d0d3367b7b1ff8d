package store

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/pkg/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecipe(id, title string, created time.Time) *common.Recipe {
	return &common.Recipe{
		ID:        id,
		Title:     title,
		Serves:    4,
		CreatedAt: created,
		Tags:      []string{"õhtusöök"},
		Ingredients: []common.Ingredient{
			{Name: "Kartul", Amount: "500", Unit: "g", Category: "Köögivili"},
		},
	}
}

// runStoreContract 對任一實作執行相同的行為檢查
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("recipes", func(t *testing.T) {
		require.NoError(t, s.Reset(ctx))

		_, err := s.GetRecipe(ctx, "missing")
		assert.ErrorIs(t, err, common.ErrRecipeNotFound)

		require.NoError(t, s.SaveRecipe(ctx, newRecipe("b", "Kartulisalat", base.Add(time.Minute))))
		require.NoError(t, s.SaveRecipe(ctx, newRecipe("a", "Seljanka", base)))

		got, err := s.GetRecipe(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "Seljanka", got.Title)
		assert.Equal(t, "500", got.Ingredients[0].Amount)
		assert.True(t, base.Equal(got.CreatedAt))

		list, err := s.ListRecipes(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].ID)
		assert.Equal(t, "b", list[1].ID)

		found, err := s.FindRecipeByTitle(ctx, "  kartulisalat ")
		require.NoError(t, err)
		assert.Equal(t, "b", found.ID)

		// 改名後舊標題不再可查
		renamed := newRecipe("b", "Rosolje", base.Add(time.Minute))
		require.NoError(t, s.SaveRecipe(ctx, renamed))
		_, err = s.FindRecipeByTitle(ctx, "Kartulisalat")
		assert.ErrorIs(t, err, common.ErrRecipeNotFound)
		found, err = s.FindRecipeByTitle(ctx, "rosolje")
		require.NoError(t, err)
		assert.Equal(t, "b", found.ID)

		require.NoError(t, s.DeleteRecipe(ctx, "a"))
		assert.ErrorIs(t, s.DeleteRecipe(ctx, "a"), common.ErrRecipeNotFound)
		_, err = s.FindRecipeByTitle(ctx, "Seljanka")
		assert.ErrorIs(t, err, common.ErrRecipeNotFound)
	})

	t.Run("title belongs to one recipe", func(t *testing.T) {
		require.NoError(t, s.Reset(ctx))
		require.NoError(t, s.SaveRecipe(ctx, newRecipe("a", "Seljanka", base)))
		require.NoError(t, s.SaveRecipe(ctx, newRecipe("b", "Rosolje", base)))

		err := s.SaveRecipe(ctx, newRecipe("c", " SELJANKA ", base))
		assert.ErrorIs(t, err, common.ErrDuplicateRecipe)

		// 改名為他人標題同樣拒絕，原索引保持不變
		err = s.SaveRecipe(ctx, newRecipe("b", "seljanka", base))
		assert.ErrorIs(t, err, common.ErrDuplicateRecipe)

		found, err := s.FindRecipeByTitle(ctx, "Seljanka")
		require.NoError(t, err)
		assert.Equal(t, "a", found.ID)
		found, err = s.FindRecipeByTitle(ctx, "Rosolje")
		require.NoError(t, err)
		assert.Equal(t, "b", found.ID)

		// 同一食譜重存不受影響
		assert.NoError(t, s.SaveRecipe(ctx, newRecipe("a", "Seljanka", base)))
	})

	t.Run("concurrent saves with the same title", func(t *testing.T) {
		require.NoError(t, s.Reset(ctx))

		const writers = 8
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- s.SaveRecipe(ctx, newRecipe(fmt.Sprintf("r%d", i), "Pannkoogid", base))
			}(i)
		}
		wg.Wait()
		close(errs)

		saved := 0
		for err := range errs {
			if err == nil {
				saved++
				continue
			}
			assert.ErrorIs(t, err, common.ErrDuplicateRecipe)
		}
		assert.Equal(t, 1, saved)

		list, err := s.ListRecipes(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		found, err := s.FindRecipeByTitle(ctx, "pannkoogid")
		require.NoError(t, err)
		assert.Equal(t, list[0].ID, found.ID)
	})

	t.Run("returned recipes are copies", func(t *testing.T) {
		require.NoError(t, s.Reset(ctx))
		require.NoError(t, s.SaveRecipe(ctx, newRecipe("a", "Seljanka", base)))

		got, err := s.GetRecipe(ctx, "a")
		require.NoError(t, err)
		got.Ingredients[0].Amount = "1"

		again, err := s.GetRecipe(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "500", again.Ingredients[0].Amount)
	})

	t.Run("catalog", func(t *testing.T) {
		require.NoError(t, s.Reset(ctx))

		require.NoError(t, s.SaveCategory(ctx, common.Category{Name: "Piimatooted", Priority: 2}))
		require.NoError(t, s.SaveCategory(ctx, common.Category{Name: "Köögivili", Priority: 0}))
		require.NoError(t, s.SaveCategory(ctx, common.Category{Name: "Piimatooted", Priority: 1}))

		categories, err := s.ListCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []common.Category{
			{Name: "Köögivili", Priority: 0},
			{Name: "Piimatooted", Priority: 1},
		}, categories)

		require.NoError(t, s.SaveIngredient(ctx, common.CatalogIngredient{Name: "Piim", Category: "Piimatooted"}))
		require.NoError(t, s.SaveIngredient(ctx, common.CatalogIngredient{Name: "Kartul", Category: "Köögivili"}))

		ingredients, err := s.ListIngredients(ctx)
		require.NoError(t, err)
		assert.Equal(t, []common.CatalogIngredient{
			{Name: "Kartul", Category: "Köögivili"},
			{Name: "Piim", Category: "Piimatooted"},
		}, ingredients)
	})

	t.Run("reset", func(t *testing.T) {
		require.NoError(t, s.SaveRecipe(ctx, newRecipe("x", "Pannkoogid", base)))
		require.NoError(t, s.Reset(ctx))

		list, err := s.ListRecipes(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
		categories, err := s.ListCategories(ctx)
		require.NoError(t, err)
		assert.Empty(t, categories)
	})

	assert.NoError(t, s.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().GetRecipe(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, "test")
	defer s.Close()

	runStoreContract(t, s)
}

func TestRedisStore_UsesPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, "kokaraamat")
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.SaveRecipe(ctx, newRecipe("r1", "Seljanka", time.Now().UTC())))
	require.NoError(t, s.SaveCategory(ctx, common.Category{Name: "Liha", Priority: 3}))

	assert.True(t, mr.Exists("kokaraamat:recipe:r1"))
	assert.Equal(t, "3", mr.HGet("kokaraamat:categories", "Liha"))
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &config.StoreConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	mr := miniredis.RunT(t)
	s, err = Open(ctx, &config.StoreConfig{
		Driver: config.DriverRedis,
		Redis:  config.RedisConfig{Addr: mr.Addr(), Prefix: "t"},
	})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, &config.StoreConfig{Driver: "cassandra"})
	assert.Error(t, err)
}

func TestSaveRecipeError_MapsUniqueViolation(t *testing.T) {
	err := saveRecipeError(&pgconn.PgError{Code: "23505", ConstraintName: "recipes_title_key_key"}, "Seljanka")
	assert.ErrorIs(t, err, common.ErrDuplicateRecipe)
	status, _ := common.StatusOf(err)
	assert.Equal(t, http.StatusConflict, status)

	err = saveRecipeError(&pgconn.PgError{Code: "57014"}, "Seljanka")
	assert.NotErrorIs(t, err, common.ErrDuplicateRecipe)
	assert.ErrorContains(t, err, "failed to save recipe")
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	s, err := NewPostgresStore(context.Background(), &config.PostgresConfig{DSN: dsn, MaxConns: 2})
	require.NoError(t, err)
	defer s.Close()

	runStoreContract(t, s)
}
