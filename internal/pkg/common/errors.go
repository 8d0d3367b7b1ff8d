package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 讓 errors.Is / errors.As 可以往下追
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，包裝過的同代碼錯誤視為相同
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Wrap 以既有錯誤為模板包裝底層錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	return NewError(e.Code, e.Message, e.Status, err)
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429
	ErrCodeInvalidServings = "INVALID_SERVINGS"  // 422
	ErrCodeInvalidRating   = "INVALID_RATING"    // 400
	ErrCodeRatingNotFound  = "RATING_NOT_FOUND"  // 404
	ErrCodeDuplicateRating = "DUPLICATE_RATING"  // 409
	ErrCodeDuplicateRecipe = "DUPLICATE_RECIPE"  // 409
	ErrCodeRecipeNotFound  = "RECIPE_NOT_FOUND"  // 404

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
	ErrCodeStoreError         = "STORE_ERROR"         // 502
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "網關超時", http.StatusGatewayTimeout, nil)
	ErrStore              = NewError(ErrCodeStoreError, "資料儲存錯誤", http.StatusBadGateway, nil)

	// 業務錯誤
	ErrRecipeNotFound  = NewError(ErrCodeRecipeNotFound, "食譜不存在", http.StatusNotFound, nil)
	ErrDuplicateRecipe = NewError(ErrCodeDuplicateRecipe, "同名食譜已存在", http.StatusConflict, nil)
	ErrInvalidServings = NewError(ErrCodeInvalidServings, "食譜份量無效", http.StatusUnprocessableEntity, nil)
	ErrInvalidRating   = NewError(ErrCodeInvalidRating, "無效的評分", http.StatusBadRequest, nil)
	ErrRatingNotFound  = NewError(ErrCodeRatingNotFound, "使用者尚未評分", http.StatusNotFound, nil)
	ErrDuplicateRating = NewError(ErrCodeDuplicateRating, "使用者已評分", http.StatusConflict, nil)
	ErrCacheFull       = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)
	ErrCacheDisabled   = NewError("CACHE_DISABLED", "緩存已禁用", http.StatusServiceUnavailable, nil)
	ErrAIServiceError  = NewError("AI_SERVICE_ERROR", "AI 服務錯誤", http.StatusServiceUnavailable, nil)
)

// StatusOf 取得錯誤對應的 HTTP 狀態碼與響應內容
func StatusOf(err error) (int, ErrorResponse) {
	if IsValidationError(err) {
		return http.StatusBadRequest, ErrorResponse{
			Code:    ErrCodeInvalidRequest,
			Message: err.Error(),
		}
	}

	var ce *CustomError
	if errors.As(err, &ce) {
		resp := ErrorResponse{Code: ce.Code, Message: ce.Message}
		if ce.Err != nil {
			resp.Details = ce.Err.Error()
		}
		return ce.Status, resp
	}

	return http.StatusInternalServerError, ErrorResponse{
		Code:    ErrCodeInternalError,
		Message: ErrInternalError.Message,
	}
}
