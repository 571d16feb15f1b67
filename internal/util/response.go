package util

import (
	"errors"
	"net/http"

	"english_tutor_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFoundWithMessage(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

// LogInternalError 记录原始错误，客户端只看到通用消息
func LogInternalError(c *gin.Context, err error) {
	logger.L(c.Request.Context()).Error("Internal server error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}

// statusOf 领域错误对应的 HTTP 状态码，未知错误返回 0
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrUnitNotFound),
		errors.Is(err, ErrLessonNotFound),
		errors.Is(err, ErrModuleNotFound),
		errors.Is(err, ErrNoModuleLesson),
		errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrActiveLessonExists):
		return http.StatusConflict
	case errors.Is(err, ErrIntentInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	}
	return 0
}

// HandleError 将领域错误映射为统一响应
func HandleError(c *gin.Context, err error) {
	switch code := statusOf(err); code {
	case 0:
		LogInternalError(c, err)
	case http.StatusForbidden:
		Forbidden(c)
	default:
		Error(c, code, err.Error())
	}
}
