package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(client *redis.Client, limit int) *gin.Engine {
	r := gin.New()
	rl := NewRateLimiter(client, "login", limit, time.Minute, discard)
	r.POST("/login", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func postFrom(r http.Handler, ip string) int {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = ip + ":4321"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	r := newLimitedRouter(client, 3)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, postFrom(r, "10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, postFrom(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, postFrom(r, "10.0.0.2"), "other clients keep their own window")

	ttl := mr.TTL("rate_limit:login:10.0.0.1")
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, postFrom(r, "10.0.0.1"))
}

func TestRateLimiterFailsOpen(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		r := newLimitedRouter(nil, 1)
		assert.Equal(t, http.StatusOK, postFrom(r, "10.0.0.1"))
		assert.Equal(t, http.StatusOK, postFrom(r, "10.0.0.1"))
	})

	t.Run("redis down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		t.Cleanup(func() { client.Close() })
		mr.Close()

		r := newLimitedRouter(client, 1)
		assert.Equal(t, http.StatusOK, postFrom(r, "10.0.0.1"))
		assert.Equal(t, http.StatusOK, postFrom(r, "10.0.0.1"))
	})
}
