package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterAllowAndRefill(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	current := time.Unix(0, 0)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return current }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))

	current = current.Add(time.Minute)
	assert.True(t, rl.Allow("1.1.1.1"))

	current = current.Add(10 * time.Minute)
	rl.cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
}

func TestRateLimiterMiddlewareRejects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(NewRateLimiter(ctx, 1, time.Hour).Middleware())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("interview ", 500)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, body) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	require.NoError(t, err)
	assert.Equal(t, body, string(decoded))

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.Use(NoStore())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
