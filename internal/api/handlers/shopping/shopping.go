package shopping

import (
	"net/http"

	shoppingService "recipe-book/internal/core/shopping"
	"recipe-book/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListRequest 購物清單請求
type ListRequest struct {
	Recipes []shoppingService.Request `json:"recipes" binding:"dive"`
}

// Handler 購物清單處理程序
type Handler struct {
	service  *shoppingService.Service
	todoVerb string
}

// NewHandler 創建購物清單處理程序
func NewHandler(service *shoppingService.Service, todoVerb string) *Handler {
	return &Handler{
		service:  service,
		todoVerb: todoVerb,
	}
}

// Register 註冊購物清單路由
func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("", h.HandleBuild)
	group.POST("/todo", h.HandleTodo)
}

// HandleBuild 彙總多份食譜為購物清單
func (h *Handler) HandleBuild(c *gin.Context) {
	items, ok := h.build(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, items)
}

// HandleTodo 以純文字待辦格式回傳購物清單
func (h *Handler) HandleTodo(c *gin.Context) {
	items, ok := h.build(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, shoppingService.FormatTodo(items, h.todoVerb))
}

func (h *Handler) build(c *gin.Context) ([]shoppingService.Item, bool) {
	requestID := common.RequestID(c)

	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("購物清單請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, common.NewValidationError(err.Error()))
		return nil, false
	}

	items, err := h.service.Build(c.Request.Context(), req.Recipes)
	if err != nil {
		common.LogError("購物清單產生失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
			zap.Int("recipes", len(req.Recipes)),
		)
		common.WriteError(c, err)
		return nil, false
	}

	common.LogInfo("購物清單產生成功",
		zap.String("request_id", requestID),
		zap.Int("recipes", len(req.Recipes)),
		zap.Int("items", len(items)),
	)
	return items, true
}
