package recipe

import (
	"context"
	"fmt"
	"strings"

	"recipe-book/internal/pkg/common"
)

// AddRating 新增使用者評分，同一使用者只能評分一次
func (s *Service) AddRating(ctx context.Context, req RatingRequest) (*common.Recipe, error) {
	recipe, user, err := s.loadForRating(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, r := range recipe.Ratings {
		if r.User == user {
			return nil, common.ErrDuplicateRating.Wrap(fmt.Errorf("user %s already rated %q", user, recipe.Title))
		}
	}
	recipe.Ratings = append(recipe.Ratings, common.Rating{User: user, Value: req.Value})

	if err := s.repo.SaveRecipe(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

// UpdateRating 更新使用者既有的評分
func (s *Service) UpdateRating(ctx context.Context, req RatingRequest) (*common.Recipe, error) {
	recipe, user, err := s.loadForRating(ctx, req)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range recipe.Ratings {
		if recipe.Ratings[i].User == user {
			recipe.Ratings[i].Value = req.Value
			found = true
			break
		}
	}
	if !found {
		return nil, common.ErrRatingNotFound.Wrap(fmt.Errorf("user %s has not rated %q", user, recipe.Title))
	}

	if err := s.repo.SaveRecipe(ctx, recipe); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *Service) loadForRating(ctx context.Context, req RatingRequest) (*common.Recipe, string, error) {
	user := strings.TrimSpace(req.User)
	if user == "" {
		return nil, "", common.NewValidationError("user is required")
	}
	if !req.Value.Valid() {
		return nil, "", common.ErrInvalidRating.Wrap(fmt.Errorf("unknown rating value %q", req.Value))
	}

	recipe, err := s.repo.FindRecipeByTitle(ctx, req.Title)
	if err != nil {
		return nil, "", err
	}
	return recipe, user, nil
}
