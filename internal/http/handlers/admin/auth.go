package admin

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/unitv-next/internal/http/response"
	"github.com/unitv-next/internal/logger"
)

const passwordHeader = "X-Admin-Password"

// PasswordGate authenticates admin requests against the configured
// bcrypt password hash. The password may arrive in the X-Admin-Password
// header or a JSON body field; an unset hash locks the surface down.
func PasswordGate(passwordHash string) gin.HandlerFunc {
	hash := strings.TrimSpace(passwordHash)
	return func(c *gin.Context) {
		if hash == "" {
			logger.Warnw("admin_password_not_configured",
				"path", c.Request.URL.Path,
			)
			response.Unauthorized(c, "admin access not configured")
			c.Abort()
			return
		}
		provided := extractPassword(c)
		if provided == "" {
			response.Unauthorized(c, "password required")
			c.Abort()
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(provided)); err != nil {
			logger.Warnw("admin_password_rejected",
				"client_ip", c.ClientIP(),
				"path", c.Request.URL.Path,
			)
			response.Unauthorized(c, "invalid password")
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractPassword(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader(passwordHeader)); header != "" {
		return header
	}
	if c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Password)
}
