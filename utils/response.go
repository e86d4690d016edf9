package utils

import "github.com/gin-gonic/gin"

// JSONResponse is the envelope every API handler writes: a five-digit
// application code (0 on success), a human-readable message, and the payload.
// The listing cache stores the marshalled envelope as-is, so its shape must
// stay stable across handlers.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes the envelope with an explicit HTTP status. Handlers use it
// directly when an error carries payload data, like the gate's redirect hint.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success writes a 200 envelope with code 0.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, 0, "success", data)
}

// Error writes an error envelope without payload data.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}
