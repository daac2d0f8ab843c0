package utils

import "github.com/gin-gonic/gin"

// ErrorResponse is the uniform error body: code mirrors the HTTP status.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error writes a JSON error response with the given status code.
func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, ErrorResponse{
		Code:    status,
		Message: message,
	})
}
