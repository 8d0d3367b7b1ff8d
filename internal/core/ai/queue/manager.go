package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"recipe-book/internal/infrastructure/config"
	"recipe-book/internal/pkg/common"

	"go.uber.org/zap"
)

// Completer 實際執行模型呼叫
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// request 隊列請求
type request struct {
	ctx    context.Context
	prompt string
	result chan result
}

// result 處理結果
type result struct {
	content string
	err     error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 隊列管理器，以固定數量的 worker 限制同時進行的模型呼叫
type Manager struct {
	completer Completer
	workers   int
	maxSize   int
	queue     chan *request
	done      chan struct{}
	wg        sync.WaitGroup
	once      sync.Once
	processed int64
}

// NewManager 創建新的隊列管理器並啟動 worker
func NewManager(cfg *config.QueueConfig, completer Completer) *Manager {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = workers
	}

	m := &Manager{
		completer: completer,
		workers:   workers,
		maxSize:   maxSize,
		queue:     make(chan *request, maxSize),
		done:      make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}

	common.LogInfo("AI 隊列已啟動",
		zap.Int("workers", workers),
		zap.Int("max_queue_size", maxSize),
	)
	return m
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case req := <-m.queue:
			// 等待期間呼叫端已放棄的請求不再送出
			if err := req.ctx.Err(); err != nil {
				req.result <- result{err: err}
				continue
			}
			content, err := m.completer.Complete(req.ctx, req.prompt)
			atomic.AddInt64(&m.processed, 1)
			req.result <- result{content: content, err: err}
		}
	}
}

// Complete 將請求加入隊列並等待結果；隊列已滿時立即回傳 ErrTooManyRequests
func (m *Manager) Complete(ctx context.Context, prompt string) (string, error) {
	req := &request{
		ctx:    ctx,
		prompt: prompt,
		result: make(chan result, 1),
	}

	select {
	case <-m.done:
		return "", common.ErrServiceUnavailable
	default:
	}

	select {
	case m.queue <- req:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
	default:
		common.LogWarn("AI queue is full", zap.Int("max_queue_size", m.maxSize))
		return "", common.ErrTooManyRequests
	}

	select {
	case res := <-req.result:
		return res.content, res.err
	case <-ctx.Done():
		return "", common.ErrGatewayTimeout.Wrap(ctx.Err())
	case <-m.done:
		return "", common.ErrServiceUnavailable
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() Status {
	if m == nil {
		return Status{}
	}
	return Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 停止 worker 並等待進行中的請求結束
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.once.Do(func() { close(m.done) })
	m.wg.Wait()
	return nil
}
