package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-book/internal/core/ai/cache"
	"recipe-book/internal/core/ai/queue"
	"recipe-book/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// Pinger 檢查依賴服務連線
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Store     string                 `json:"store"`
	AI        bool                   `json:"ai_enabled"`
	Runtime   map[string]interface{} `json:"runtime"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
	Queue     *queue.Status          `json:"queue,omitempty"`
}

// Handler 健康檢查處理程序
type Handler struct {
	version      string
	storeDriver  string
	aiEnabled    bool
	store        Pinger
	cacheManager *cache.CacheManager
	queue        *queue.Manager
}

// NewHandler 創建健康檢查處理程序；未啟用 AI 時 cacheManager 與 aiQueue 為 nil
func NewHandler(version, storeDriver string, store Pinger, cacheManager *cache.CacheManager, aiQueue *queue.Manager) *Handler {
	return &Handler{
		version:      version,
		storeDriver:  storeDriver,
		aiEnabled:    aiQueue != nil,
		store:        store,
		cacheManager: cacheManager,
		queue:        aiQueue,
	}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Store:     h.storeDriver,
		AI:        h.aiEnabled,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if h.cacheManager != nil {
		stats := h.cacheManager.GetStats()
		response.Cache = &stats
	}
	if h.queue != nil {
		status := h.queue.GetQueueStatus()
		response.Queue = &status
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器，確認儲存層可連線
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		common.LogWarn("Readiness check failed",
			zap.Error(err),
			zap.String("store", h.storeDriver),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"store":  h.storeDriver,
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"store":  h.storeDriver,
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
