package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe-book/internal/core/ai/cache"
	"recipe-book/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCompleter struct {
	calls   int
	prompts []string
	reply   string
	err     error
}

func (c *countingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.calls++
	c.prompts = append(c.prompts, prompt)
	return c.reply, c.err
}

func TestProcessRequest_UsesCache(t *testing.T) {
	cm := cache.NewManager(&config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
	defer cm.Close()

	completer := &countingCompleter{reply: "vastus"}
	svc := NewService(completer, cm)
	ctx := WithRequestID(context.Background(), "req-1")

	first, err := svc.ProcessRequest(ctx, "Genereeri\n   retsept")
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := svc.ProcessRequest(ctx, "Genereeri retsept")
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, "vastus", second.Content)

	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, []string{"Genereeri retsept"}, completer.prompts)
}

func TestProcessRequest_WithoutCache(t *testing.T) {
	completer := &countingCompleter{reply: "vastus"}
	svc := NewService(completer, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.ProcessRequest(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, completer.calls)
}

func TestProcessRequest_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&countingCompleter{err: boom}, nil)

	_, err := svc.ProcessRequest(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
