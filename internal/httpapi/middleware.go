package httpapi

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// HeaderRequestID carries the request identifier in both directions.
	HeaderRequestID = "X-Request-ID"

	contextKeyRequestID = "request_id"
	requestIDMaxLength  = 128

	logEventHTTP       = "http"
	logFieldMethod     = "method"
	logFieldPath       = "path"
	logFieldStatus     = "status"
	logFieldDuration   = "dur"
	logFieldClientIP   = "ip"
	logFieldUserAgent  = "ua"
	logFieldRequestID  = "request_id"
	logFieldQueryCount = "query_params"
)

// RequestID keeps a caller supplied X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(context *gin.Context) {
		requestID := strings.TrimSpace(context.GetHeader(HeaderRequestID))
		if requestID == "" || len(requestID) > requestIDMaxLength {
			requestID = uuid.NewString()
		}
		context.Set(contextKeyRequestID, requestID)
		context.Header(HeaderRequestID, requestID)
		context.Next()
	}
}

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info(logEventHTTP,
			zap.String(logFieldMethod, context.Request.Method),
			zap.String(logFieldPath, context.Request.URL.Path),
			zap.Int(logFieldStatus, context.Writer.Status()),
			zap.Duration(logFieldDuration, time.Since(start)),
			zap.String(logFieldClientIP, context.ClientIP()),
			zap.String(logFieldUserAgent, context.Request.UserAgent()),
			zap.String(logFieldRequestID, context.GetString(contextKeyRequestID)),
			zap.Int(logFieldQueryCount, len(context.Request.URL.Query())),
		)
	}
}
