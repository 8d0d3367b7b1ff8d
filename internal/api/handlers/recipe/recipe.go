package recipe

import (
	"context"
	"net/http"
	"strconv"

	aiservice "recipe-book/internal/core/ai/service"
	recipeService "recipe-book/internal/core/recipe"
	"recipe-book/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 食譜處理程序
type Handler struct {
	recipeService *recipeService.Service
	generator     *recipeService.Generator
}

// NewHandler 創建新的食譜處理程序
func NewHandler(recipeService *recipeService.Service, generator *recipeService.Generator) *Handler {
	return &Handler{
		recipeService: recipeService,
		generator:     generator,
	}
}

// Register 註冊食譜相關路由
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("", h.HandleSearch)
	group.POST("", h.HandleCreate)
	group.POST("/ratings", h.HandleAddRating)
	group.PUT("/ratings", h.HandleUpdateRating)
	group.POST("/generate", h.HandleGenerate)
	group.GET("/:id", h.HandleGet)
	group.PUT("/:id", h.HandleUpdate)
	group.DELETE("/:id", h.HandleDelete)
}

// HandleSearch 搜尋食譜，可選擇依份量縮放
func (h *Handler) HandleSearch(c *gin.Context) {
	requestID := common.RequestID(c)

	serves := 0
	if raw := c.Query("serves"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			common.WriteError(c, common.NewValidationError("serves must be an integer"))
			return
		}
		serves = n
	}

	recipes, err := h.recipeService.Search(c.Request.Context(), c.Query("query"), serves)
	if err != nil {
		common.LogError("食譜搜尋失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipes)
}

// HandleGet 取得單一食譜
func (h *Handler) HandleGet(c *gin.Context) {
	recipe, err := h.recipeService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// HandleCreate 新增食譜
func (h *Handler) HandleCreate(c *gin.Context) {
	requestID := common.RequestID(c)

	var input common.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, common.NewValidationError(err.Error()))
		return
	}

	recipe, err := h.recipeService.Create(c.Request.Context(), input)
	if err != nil {
		common.LogWarn("食譜新增失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, err)
		return
	}

	common.LogInfo("食譜新增成功",
		zap.String("request_id", requestID),
		zap.String("recipe_id", recipe.ID),
		zap.String("title", recipe.Title),
	)
	c.JSON(http.StatusCreated, recipe)
}

// HandleUpdate 更新食譜內容
func (h *Handler) HandleUpdate(c *gin.Context) {
	requestID := common.RequestID(c)

	var input common.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		common.WriteError(c, common.NewValidationError(err.Error()))
		return
	}

	recipe, err := h.recipeService.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		common.LogWarn("食譜更新失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// HandleDelete 刪除食譜
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.recipeService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		common.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleAddRating 新增使用者評分
func (h *Handler) HandleAddRating(c *gin.Context) {
	h.handleRating(c, h.recipeService.AddRating)
}

// HandleUpdateRating 修改使用者評分
func (h *Handler) HandleUpdateRating(c *gin.Context) {
	h.handleRating(c, h.recipeService.UpdateRating)
}

func (h *Handler) handleRating(c *gin.Context, apply func(ctx context.Context, req recipeService.RatingRequest) (*common.Recipe, error)) {
	var req recipeService.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError(err.Error()))
		return
	}

	recipe, err := apply(c.Request.Context(), req)
	if err != nil {
		common.LogWarn("評分失敗",
			zap.Error(err),
			zap.String("request_id", common.RequestID(c)),
			zap.String("title", req.Title),
		)
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// HandleGenerate 使用 AI 產生食譜草稿
func (h *Handler) HandleGenerate(c *gin.Context) {
	requestID := common.RequestID(c)

	common.LogInfo("開始處理食譜生成請求",
		zap.String("request_id", requestID),
		zap.String("client_ip", c.ClientIP()),
	)

	var req recipeService.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.NewValidationError(err.Error()))
		return
	}

	ctx := aiservice.WithRequestID(c.Request.Context(), requestID)
	recipe, err := h.generator.Generate(ctx, req.Query, req.Mock)
	if err != nil {
		common.LogError("食譜生成失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, err)
		return
	}

	common.LogInfo("食譜生成成功",
		zap.String("request_id", requestID),
		zap.String("title", recipe.Title),
	)
	c.JSON(http.StatusOK, recipe)
}
