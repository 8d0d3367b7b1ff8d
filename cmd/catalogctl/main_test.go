package main

import (
	"testing"

	"recipe-book/internal/core/shopping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipeArgs(t *testing.T) {
	reqs, err := parseRecipeArgs([]string{"pannkoogid:8", "a:b:2"})
	require.NoError(t, err)
	assert.Equal(t, []shopping.Request{
		{RecipeID: "pannkoogid", TargetServes: 8},
		{RecipeID: "a:b", TargetServes: 2},
	}, reqs)

	for _, bad := range []string{"pannkoogid", ":4", "pannkoogid:", "pannkoogid:x"} {
		_, err := parseRecipeArgs([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"seed", "recipes", "shopping-list"})
}
