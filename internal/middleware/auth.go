package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// APIKey 返回一个 Gin 中间件，用共享 API key 保护 REST 接口。
// expected 为空表示关闭鉴权，中间件直接放行。
// URL 查询串里的凭证无条件拒绝：query 参数会进入访问日志和浏览器历史。
func APIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		query := c.Request.URL.Query()
		if query.Has("apiKey") || query.Has("collabKey") {
			logrus.WithField("path", c.Request.URL.Path).Warn("APIKey middleware: Rejected credential in URL query parameters")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key cannot be passed in URL query parameters"})
			c.Abort()
			return
		}

		key := extractRequestKey(c)
		if key == "" {
			logrus.WithField("path", c.Request.URL.Path).Warn("APIKey middleware: Missing API key")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API key is required"})
			c.Abort()
			return
		}
		if key != expected {
			logrus.WithField("path", c.Request.URL.Path).Warn("APIKey middleware: Invalid API key")
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid API key"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractRequestKey 按序检查 Authorization Bearer、X-API-Key 头和
// collabKey/apiKey cookie，返回第一个命中的凭证。
func extractRequestKey(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		parts := strings.Split(auth, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if cookie, err := c.Cookie("collabKey"); err == nil && cookie != "" {
		return cookie
	}
	if cookie, err := c.Cookie("apiKey"); err == nil && cookie != "" {
		return cookie
	}
	return ""
}
