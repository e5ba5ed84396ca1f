package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumekit/internal/auth"
	"resumekit/internal/database"
)

const userIDKey = "userID"

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware 校验访问令牌并将 userID 注入上下文。
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := bearerToken(c)
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := authService.ValidateToken(rawToken)
		if err != nil || claims.TokenType != "access" {
			abortUnauthorized(c)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// OptionalAuthMiddleware 与 AuthMiddleware 相同，但缺少或无效的令牌不会
// 中断请求。公开简历页用它区分访客视图与属主的编辑视图。
func OptionalAuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := bearerToken(c)
		if rawToken != "" {
			if claims, err := authService.ValidateToken(rawToken); err == nil && claims.TokenType == "access" {
				c.Set(userIDKey, claims.UserID)
			}
		}
		c.Next()
	}
}

// StaffMiddleware 在 AuthMiddleware 之后使用，要求当前用户是 staff。
func StaffMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(userIDKey)
		userID, ok := value.(uint)
		if !exists || !ok {
			abortUnauthorized(c)
			return
		}

		var user database.User
		if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
			abortUnauthorized(c)
			return
		}
		if !user.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff only"})
			return
		}

		c.Next()
	}
}
