package category

import (
	"net/http"

	categoryService "recipe-book/internal/core/category"
	"recipe-book/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CategoryRequest 新增分類請求
type CategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	Priority *int   `json:"priority" binding:"required"`
}

// IngredientRequest 新增目錄食材請求
type IngredientRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
}

// Handler 分類與食材目錄處理程序
type Handler struct {
	service *categoryService.Service
}

// NewHandler 創建分類處理程序
func NewHandler(service *categoryService.Service) *Handler {
	return &Handler{service: service}
}

// Register 註冊分類與食材目錄路由
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("/categories", h.HandleListCategories)
	group.POST("/categories", h.HandleAddCategory)
	group.GET("/ingredients", h.HandleListIngredients)
	group.POST("/ingredients", h.HandleAddIngredient)
}

// HandleListCategories 依排序值列出分類
func (h *Handler) HandleListCategories(c *gin.Context) {
	categories, err := h.service.List(c.Request.Context())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// HandleAddCategory 新增或更新分類排序值
func (h *Handler) HandleAddCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError(err.Error()))
		return
	}

	category, err := h.service.Add(c.Request.Context(), req.Name, *req.Priority)
	if err != nil {
		common.LogWarn("分類新增失敗",
			zap.Error(err),
			zap.String("request_id", common.RequestID(c)),
		)
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// HandleListIngredients 列出食材目錄
func (h *Handler) HandleListIngredients(c *gin.Context) {
	ingredients, err := h.service.Ingredients(c.Request.Context())
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

// HandleAddIngredient 新增目錄食材
func (h *Handler) HandleAddIngredient(c *gin.Context) {
	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError(err.Error()))
		return
	}

	ingredient, err := h.service.AddIngredient(c.Request.Context(), req.Name, req.Category)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ingredient)
}
