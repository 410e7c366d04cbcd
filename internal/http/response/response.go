package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK renders a 200 with success=true merged into the payload.
func OK(c *gin.Context, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["success"]; !ok {
		data["success"] = true
	}
	c.JSON(http.StatusOK, data)
}

// Fail renders an error payload with the given HTTP status.
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, attachRequestID(c, gin.H{
		"success": false,
		"error":   msg,
	}))
}

// BadRequest renders a 400 validation failure.
func BadRequest(c *gin.Context, msg string) {
	Fail(c, http.StatusBadRequest, msg)
}

// Unauthorized renders a 401.
func Unauthorized(c *gin.Context, msg string) {
	Fail(c, http.StatusUnauthorized, msg)
}

// InternalError renders a 500.
func InternalError(c *gin.Context, msg string) {
	Fail(c, http.StatusInternalServerError, msg)
}

// TooManyRequests renders a 429.
func TooManyRequests(c *gin.Context, msg string) {
	Fail(c, http.StatusTooManyRequests, msg)
}

func attachRequestID(c *gin.Context, data gin.H) gin.H {
	if c == nil {
		return data
	}
	value, ok := c.Get("request_id")
	if !ok {
		return data
	}
	id, ok := value.(string)
	if !ok || id == "" {
		return data
	}
	if _, exists := data["request_id"]; !exists {
		data["request_id"] = id
	}
	return data
}
