package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationIDKey = "correlationID"

// CorrelationIDHeader 是请求与响应里携带关联 ID 的头部名。
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationIDMiddleware 为每个请求确定一个关联 ID 并回写到响应头。
// 上游传来的值必须是合法 UUID，否则视为缺失重新生成，避免把任意
// 客户端字符串透传进日志。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header(CorrelationIDHeader, id)

		c.Next()
	}
}

// GetCorrelationID 返回当前请求的关联 ID，中间件未运行时为空串。
func GetCorrelationID(c *gin.Context) string {
	if value, ok := c.Get(correlationIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
