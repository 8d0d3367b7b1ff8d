package shopping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecipeSource 依 ID 讀取食譜
type RecipeSource interface {
	GetRecipe(ctx context.Context, id string) (*common.Recipe, error)
}

// PrioritySource 提供分類排序表
type PrioritySource interface {
	Priorities(ctx context.Context) (map[string]int, error)
}

// Request 單一食譜與目標份量
type Request struct {
	RecipeID     string `json:"id" binding:"required"`
	TargetServes int    `json:"targetServes" binding:"required,min=1"`
}

// Options 購物清單策略
type Options struct {
	MissingRecipePolicy   string
	InvalidServingsPolicy string
	DefaultPriority       int
	FetchTimeout          time.Duration
}

// OptionsFromConfig 由設定建立購物清單策略
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MissingRecipePolicy:   cfg.Shopping.MissingRecipePolicy,
		InvalidServingsPolicy: cfg.Shopping.InvalidServingsPolicy,
		DefaultPriority:       cfg.Shopping.DefaultPriority,
		FetchTimeout:          cfg.Store.FetchTimeout,
	}
}

// Service 購物清單服務
type Service struct {
	recipes    RecipeSource
	priorities PrioritySource
	opts       Options
}

// NewService 創建購物清單服務；未指定的策略採用預設值，DefaultPriority 原樣使用
func NewService(recipes RecipeSource, priorities PrioritySource, opts Options) *Service {
	if opts.MissingRecipePolicy == "" {
		opts.MissingRecipePolicy = config.PolicySkip
	}
	if opts.InvalidServingsPolicy == "" {
		opts.InvalidServingsPolicy = config.PolicyFail
	}
	return &Service{
		recipes:    recipes,
		priorities: priorities,
		opts:       opts,
	}
}

// Build 產生彙總後的購物清單
//
// 所有食譜與分類排序表會並行讀取，任何一筆讀取失敗（逾時、連線錯誤）都會使整個請求失敗。
func (s *Service) Build(ctx context.Context, reqs []Request) ([]Item, error) {
	if err := validateRequests(reqs); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return []Item{}, nil
	}

	recipes := make([]*common.Recipe, len(reqs))
	var priorities map[string]int

	eg, egCtx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		eg.Go(func() error {
			recipe, err := s.fetchRecipe(egCtx, req.RecipeID)
			if err != nil {
				return err
			}
			recipes[i] = recipe
			return nil
		})
	}
	eg.Go(func() error {
		fetchCtx, cancel := s.withFetchTimeout(egCtx)
		defer cancel()

		p, err := s.priorities.Priorities(fetchCtx)
		if err != nil {
			return storeError("load category priorities", err)
		}
		priorities = p
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 在所有讀取完成後依請求順序縮放，確保分類取首次出現者
	lists := make([][]common.Ingredient, 0, len(reqs))
	for i, req := range reqs {
		recipe := recipes[i]
		if recipe == nil {
			continue
		}
		scaled, err := Scale(recipe, req.TargetServes)
		if err != nil {
			if errors.Is(err, common.ErrInvalidServings) && s.opts.InvalidServingsPolicy == config.PolicySkip {
				common.LogWarn("Skipping recipe with invalid servings",
					zap.String("recipe_id", recipe.ID),
					zap.Int("serves", recipe.Serves),
				)
				continue
			}
			return nil, err
		}
		lists = append(lists, scaled)
	}

	buckets, skipped := Aggregate(lists)
	items := Assemble(buckets, priorities, s.opts.DefaultPriority)

	common.LogDebug("Shopping list built",
		zap.Int("recipes", len(lists)),
		zap.Int("items", len(items)),
		zap.Int("non_numeric_skipped", skipped),
	)

	return items, nil
}

func (s *Service) fetchRecipe(ctx context.Context, id string) (*common.Recipe, error) {
	fetchCtx, cancel := s.withFetchTimeout(ctx)
	defer cancel()

	recipe, err := s.recipes.GetRecipe(fetchCtx, id)
	if err == nil {
		return recipe, nil
	}
	if errors.Is(err, common.ErrRecipeNotFound) {
		if s.opts.MissingRecipePolicy == config.PolicySkip {
			common.LogWarn("Skipping unknown recipe", zap.String("recipe_id", id))
			return nil, nil
		}
		return nil, err
	}
	return nil, storeError(fmt.Sprintf("load recipe %s", id), err)
}

func (s *Service) withFetchTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.FetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.FetchTimeout)
}

// storeError 將儲存層錯誤轉為請求層級錯誤
func storeError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return common.ErrGatewayTimeout.Wrap(fmt.Errorf("%s: %w", op, err))
	}
	var ce *common.CustomError
	if errors.As(err, &ce) {
		return err
	}
	return common.ErrStore.Wrap(fmt.Errorf("%s: %w", op, err))
}

func validateRequests(reqs []Request) error {
	for i, req := range reqs {
		if strings.TrimSpace(req.RecipeID) == "" {
			return common.NewValidationError(fmt.Sprintf("recipes[%d]: id is required", i))
		}
		if req.TargetServes <= 0 {
			return common.NewValidationError(fmt.Sprintf("recipes[%d]: targetServes must be a positive integer", i))
		}
	}
	return nil
}
