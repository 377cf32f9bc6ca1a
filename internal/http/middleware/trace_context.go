package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/unexbilletera/unex-api/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxInboundIDLen = 128
)

// AttachTraceContext resolves the request and trace ids for logs, responses
// and outbound COELSA calls. The trace id comes from the active span when
// otelgin started one, else from X-Trace-Id, else a fresh uuid. Inbound ids
// that fail inboundID are replaced.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := inboundID(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.NewString()
		}

		var traceID string
		if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.HasTraceID() {
			traceID = spanCtx.TraceID().String()
		} else if id := inboundID(c.GetHeader(headerTraceID)); id != "" {
			traceID = id
		} else {
			traceID = uuid.NewString()
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		}))
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

// inboundID returns the trimmed header value when it is short and limited to
// letters, digits, '-', '_', '.' and ':'. Otherwise it returns "".
func inboundID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxInboundIDLen {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return ""
		}
	}
	return id
}
