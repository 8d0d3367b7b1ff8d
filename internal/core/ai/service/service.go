package service

import (
	"context"
	"strings"
	"time"

	"recipe-book/internal/core/ai/cache"
	"recipe-book/internal/pkg/common"

	"go.uber.org/zap"
)

// Completer 呼叫語言模型取得回應
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Response AI 回應
type Response struct {
	Content  string
	CacheHit bool
}

// Service AI 服務，先查快取再呼叫模型
type Service struct {
	completer    Completer
	cacheManager *cache.CacheManager
}

// NewService 創建 AI 服務；cacheManager 可為 nil
func NewService(completer Completer, cacheManager *cache.CacheManager) *Service {
	return &Service{
		completer:    completer,
		cacheManager: cacheManager,
	}
}

// ProcessRequest 統一對外方法
func (s *Service) ProcessRequest(ctx context.Context, prompt string) (*Response, error) {
	// 統一 prompt 格式，合併連續空白，確保快取 key 一致
	prompt = strings.Join(strings.Fields(prompt), " ")

	if val, err := s.cacheManager.Get(ctx, prompt); err == nil && val != "" {
		return &Response{Content: val, CacheHit: true}, nil
	}

	start := time.Now()
	content, err := s.completer.Complete(ctx, prompt)
	common.LogAICall(time.Since(start), err, requestIDFrom(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.cacheManager.Set(ctx, prompt, content); err != nil {
		common.LogWarn("Failed to cache AI response", zap.Error(err))
	}

	return &Response{Content: content}, nil
}

type requestIDKey struct{}

// WithRequestID 將請求 ID 放入 context，供 AI 呼叫日誌使用
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
