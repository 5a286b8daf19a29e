package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func traceRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TraceIDMiddleware())
	r.POST("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"trace_id": c.GetString("trace_id")})
	})
	return r
}

func TestTraceIDMiddleware(t *testing.T) {
	t.Run("mints a trace id when the caller sends none", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/ping", nil)
		w := httptest.NewRecorder()
		traceRouter().ServeHTTP(w, req)

		traceID := w.Header().Get("X-Trace-ID")
		require.NotEmpty(t, traceID)
		_, err := uuid.Parse(traceID)
		require.NoError(t, err)
	})

	t.Run("reuses the caller's trace id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/ping", nil)
		req.Header.Set("X-Trace-ID", "kpay-redelivery-7")
		w := httptest.NewRecorder()
		traceRouter().ServeHTTP(w, req)

		require.Equal(t, "kpay-redelivery-7", w.Header().Get("X-Trace-ID"))
		require.Contains(t, w.Body.String(), "kpay-redelivery-7")
	})
}
