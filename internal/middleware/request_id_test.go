package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbook/internal/observability"
)

func newRequestIDRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"gin":     c.GetString(RequestIDContextKey),
			"request": observability.RequestIDFromContext(c.Request.Context()),
		})
	})
	return router
}

func TestRequestIDReusesHeader(t *testing.T) {
	router := newRequestIDRouter()

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(observability.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(observability.RequestIDHeader))
	assert.JSONEq(t, `{"gin":"req-42","request":"req-42"}`, w.Body.String())
}

func TestRequestIDGenerated(t *testing.T) {
	router := newRequestIDRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))

	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(observability.RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"gin":"`+id+`","request":"`+id+`"}`, w.Body.String())
}
