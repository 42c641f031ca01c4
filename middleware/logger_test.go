package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(TraceID(log), Logger(log), Recovery(log))
	r.GET("/actors/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/actors/:id/goal", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { panic("bad handler") })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/actors/3", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/actors/3/goal", nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), w.Header().Get(TraceIDHeader))

	reqs := logs.FilterMessage("http").All()
	require.Len(t, reqs, 3)
	assert.Equal(t, zapcore.DebugLevel, reqs[0].Level)
	assert.Equal(t, "3", reqs[0].ContextMap()["target"])
	assert.Equal(t, zapcore.InfoLevel, reqs[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, reqs[2].Level)

	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}
