// catalogctl 管理食譜目錄：匯入種子資料、查詢食譜與產生購物清單
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"recipe-book/internal/app"
	"recipe-book/internal/core/shopping"
	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/infrastructure/seed"
	"recipe-book/internal/pkg/common"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Manage the recipe catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSeedCmd(), newRecipesCmd(), newShoppingListCmd())
	return root
}

// withApp 載入設定並建立應用依賴，結束時關閉連線
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := common.InitLogger(cfg.LogLevel, cfg.LogDir, cfg.App.Name); err != nil {
		return err
	}
	defer common.Sync()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func newSeedCmd() *cobra.Command {
	var (
		file  string
		reset bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories, ingredients and recipes from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := seed.LoadFile(file)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				if reset {
					if err := a.Store.Reset(cmd.Context()); err != nil {
						return fmt.Errorf("failed to reset store: %w", err)
					}
				}
				res, err := seed.Apply(cmd.Context(), data, a.Categories, a.Recipes)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories, %d ingredients, %d recipes\n",
					res.Categories, res.Ingredients, res.Recipes)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "data/seed.yaml", "seed file path")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the store before seeding")
	return cmd
}

func newRecipesCmd() *cobra.Command {
	var (
		query  string
		serves int
	)
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "Search recipes, optionally scaled to a number of servings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				recipes, err := a.Recipes.Search(cmd.Context(), query, serves)
				if err != nil {
					return err
				}
				out, err := common.ToJSON(recipes)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "search text")
	cmd.Flags().IntVarP(&serves, "serves", "s", 0, "scale results to this many servings")
	return cmd
}

func newShoppingListCmd() *cobra.Command {
	var (
		recipeArgs []string
		todo       bool
	)
	cmd := &cobra.Command{
		Use:     "shopping-list",
		Short:   "Build an aggregated shopping list",
		Example: "  catalogctl shopping-list --recipe pannkoogid:8 --recipe hakklihakaste:4 --todo",
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := parseRecipeArgs(recipeArgs)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				items, err := a.Shopping.Build(cmd.Context(), reqs)
				if err != nil {
					return err
				}
				if todo {
					fmt.Fprintln(cmd.OutOrStdout(), shopping.FormatTodo(items, a.Config.Shopping.TodoVerb))
					return nil
				}
				out, err := common.ToJSON(items)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&recipeArgs, "recipe", "r", nil, "recipe as <id>:<servings>, repeatable")
	cmd.Flags().BoolVar(&todo, "todo", false, "print as plain-text todo lines")
	_ = cmd.MarkFlagRequired("recipe")
	return cmd
}

// parseRecipeArgs 解析 <id>:<servings> 格式
func parseRecipeArgs(args []string) ([]shopping.Request, error) {
	reqs := make([]shopping.Request, 0, len(args))
	for _, arg := range args {
		idx := strings.LastIndex(arg, ":")
		if idx <= 0 || idx == len(arg)-1 {
			return nil, fmt.Errorf("invalid recipe %q, expected <id>:<servings>", arg)
		}
		serves, err := strconv.Atoi(arg[idx+1:])
		if err != nil {
			return nil, fmt.Errorf("invalid servings in %q: %w", arg, err)
		}
		reqs = append(reqs, shopping.Request{RecipeID: arg[:idx], TargetServes: serves})
	}
	return reqs, nil
}
