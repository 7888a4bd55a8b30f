package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lim := NewRateLimiter(60, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lim.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/auth/login", lim.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, hit("10.0.0.1"))
	require.Equal(t, http.StatusOK, hit("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	require.Equal(t, http.StatusOK, hit("10.0.0.2"))

	now = now.Add(time.Second)
	require.Equal(t, http.StatusOK, hit("10.0.0.1"))

	now = now.Add(time.Hour)
	require.Equal(t, http.StatusOK, hit("10.0.0.1"))
	require.Len(t, lim.buckets, 1)
}

func TestRateLimiter_SweepsOnInterval(t *testing.T) {
	lim := NewRateLimiter(60, 1)
	lim.ttl = time.Minute
	lim.sweepEvery = 10 * time.Minute
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lim.now = func() time.Time { return now }

	require.True(t, lim.allow("a"))

	// a is idle past ttl, but no sweep is due yet
	now = now.Add(5 * time.Minute)
	require.True(t, lim.allow("b"))
	require.Len(t, lim.buckets, 2)

	now = now.Add(6 * time.Minute)
	require.True(t, lim.allow("b"))
	require.Len(t, lim.buckets, 1)
	require.Contains(t, lim.buckets, "b")
}
