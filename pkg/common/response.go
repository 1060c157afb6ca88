package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the standard JSON envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorBody is the serialized error payload
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse sends a 200 response with data
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// SuccessResponseWithMeta sends a 200 response with data and pagination meta
func SuccessResponseWithMeta(c *gin.Context, data, meta interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Meta: meta})
}

// SuccessResponseWithStatus sends a response with a custom status code
func SuccessResponseWithStatus(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{Success: true, Data: data})
}

// CreatedResponse sends a 201 response with data
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// ErrorResponse sends an error response with the given status and message
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	code := CodeInternal
	switch statusCode {
	case http.StatusBadRequest:
		code = CodeBadRequest
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusForbidden:
		code = CodeForbidden
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusConflict:
		code = CodeConflict
	case http.StatusTooManyRequests:
		code = CodeRateLimited
	case http.StatusBadGateway:
		code = CodeDependencyTimeout
	case http.StatusServiceUnavailable:
		code = CodeServiceUnavailable
	}
	c.JSON(statusCode, Response{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}

// AppErrorResponse sends a response derived from an AppError
func AppErrorResponse(c *gin.Context, err *AppError) {
	c.JSON(err.StatusCode, Response{Success: false, Error: &ErrorBody{Code: err.Code, Message: err.Message}})
}
