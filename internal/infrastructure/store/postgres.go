package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/pkg/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation PostgreSQL unique_violation 錯誤碼
const uniqueViolation = "23505"

// PostgresStore 以 PostgreSQL 保存資料
//
// 食譜完整內容存於 JSONB 欄位，標題另存小寫鍵以維持唯一性。
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore 建立連線池並初始化資料表
func NewPostgresStore(ctx context.Context, cfg *config.PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS recipes (
			id TEXT PRIMARY KEY,
			title_key TEXT NOT NULL UNIQUE,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			name TEXT PRIMARY KEY,
			priority INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ingredients (
			name TEXT PRIMARY KEY,
			category TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetRecipe 依 ID 取得食譜
func (s *PostgresStore) GetRecipe(ctx context.Context, id string) (*common.Recipe, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM recipes WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return decodeRecipe(payload)
}

// ListRecipes 依建立時間列出所有食譜
func (s *PostgresStore) ListRecipes(ctx context.Context) ([]*common.Recipe, error) {
	rows, err := s.pool.Query(ctx, `SELECT payload FROM recipes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	out := []*common.Recipe{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipe, err := decodeRecipe(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, recipe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return out, nil
}

// FindRecipeByTitle 依標題（不分大小寫）查找食譜
func (s *PostgresStore) FindRecipeByTitle(ctx context.Context, title string) (*common.Recipe, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM recipes WHERE title_key = $1`, common.TitleKey(title)).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to lookup title: %w", err)
	}
	return decodeRecipe(payload)
}

// SaveRecipe 新增或覆寫食譜，標題已屬於其他食譜時回傳 ErrDuplicateRecipe
func (s *PostgresStore) SaveRecipe(ctx context.Context, recipe *common.Recipe) error {
	payload, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to marshal recipe: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO recipes (id, title_key, payload, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET title_key = EXCLUDED.title_key, payload = EXCLUDED.payload
	`, recipe.ID, common.TitleKey(recipe.Title), payload, recipe.CreatedAt)
	if err != nil {
		return saveRecipeError(err, recipe.Title)
	}
	return nil
}

// saveRecipeError 轉換寫入錯誤；id 衝突已由 ON CONFLICT 處理，剩下的唯一鍵衝突只會是 title_key
func saveRecipeError(err error, title string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return duplicateTitle(title)
	}
	return fmt.Errorf("failed to save recipe: %w", err)
}

// DeleteRecipe 刪除食譜
func (s *PostgresStore) DeleteRecipe(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrRecipeNotFound
	}
	return nil
}

// ListCategories 依排序值列出分類
func (s *PostgresStore) ListCategories(ctx context.Context) ([]common.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, priority FROM categories ORDER BY priority, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	out := []common.Category{}
	for rows.Next() {
		var c common.Category
		if err := rows.Scan(&c.Name, &c.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCategory 新增或更新分類
func (s *PostgresStore) SaveCategory(ctx context.Context, category common.Category) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO categories (name, priority) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET priority = EXCLUDED.priority
	`, category.Name, category.Priority)
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

// ListIngredients 依名稱列出食材目錄
func (s *PostgresStore) ListIngredients(ctx context.Context) ([]common.CatalogIngredient, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, category FROM ingredients ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	out := []common.CatalogIngredient{}
	for rows.Next() {
		var ing common.CatalogIngredient
		if err := rows.Scan(&ing.Name, &ing.Category); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

// SaveIngredient 新增或更新食材目錄項目
func (s *PostgresStore) SaveIngredient(ctx context.Context, ingredient common.CatalogIngredient) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingredients (name, category) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET category = EXCLUDED.category
	`, ingredient.Name, ingredient.Category)
	if err != nil {
		return fmt.Errorf("failed to save ingredient: %w", err)
	}
	return nil
}

// Reset 清空所有資料表
func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE recipes, categories, ingredients`); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	return nil
}

// Ping 檢查資料庫連線
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close 關閉連線池
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
