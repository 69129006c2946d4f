package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quantflow/pkg/logger"
)

func Logger(c *gin.Context) {
	// 请求前
	t := time.Now()
	reqPath := c.Request.URL.Path
	method := c.Request.Method
	ip := c.ClientIP()

	c.Next()

	// 请求后
	latency := time.Since(t)
	logger.L().Info("[Request]",
		zap.String("host", ip),
		zap.String("path", reqPath),
		zap.String("method", method),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("cost", latency))
}
