package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/household-backend/internal/logger"
	"github.com/ignatzorin/household-backend/internal/pkg/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// Error пишет AppError как есть, остальные ошибки маскирует под 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logFailure(c, err)
		}
		c.JSON(appErr.HTTPStatus, Response{
			Success: false,
			Error: &ErrorInfo{
				Code:    string(appErr.Code),
				Message: appErr.Message,
			},
		})
		return
	}

	logFailure(c, err)
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeInternal),
			Message: "внутренняя ошибка сервера",
		},
	})
}

func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, apperror.ErrCodeBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	abort(c, http.StatusNotFound, apperror.ErrCodeNotFound, message)
}

func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, apperror.ErrCodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, apperror.ErrCodeForbidden, message)
}

func TooManyRequests(c *gin.Context, message string) {
	abort(c, http.StatusTooManyRequests, apperror.ErrCodeRateLimited, message)
}

func abort(c *gin.Context, status int, code apperror.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(code),
			Message: message,
		},
	})
}

func logFailure(c *gin.Context, err error) {
	logger.Log.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Error("Request error")
}
