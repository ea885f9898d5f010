package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newIdempotentRouter(t *testing.T, hits *int) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Idempotency(&IdempotencyConfig{Store: client}))
	router.POST("/holds", func(c *gin.Context) {
		*hits++
		c.JSON(http.StatusCreated, gin.H{"attempt": *hits})
	})
	return router
}

func postWithKey(router *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/holds", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	hits := 0
	router := newIdempotentRouter(t, &hits)

	first := postWithKey(router, "key-1", `{"event_id":"e1"}`)
	second := postWithKey(router, "key-1", `{"event_id":"e1"}`)

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, 1, hits, "handler must run once per idempotency key")
	require.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestIdempotency_RejectsKeyReuseWithDifferentBody(t *testing.T) {
	hits := 0
	router := newIdempotentRouter(t, &hits)

	first := postWithKey(router, "key-1", `{"event_id":"e1"}`)
	second := postWithKey(router, "key-1", `{"event_id":"e2"}`)

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusUnprocessableEntity, second.Code)
	require.Equal(t, 1, hits)
}

func TestIdempotency_MissingKeyPassesThrough(t *testing.T) {
	hits := 0
	router := newIdempotentRouter(t, &hits)

	postWithKey(router, "", `{"event_id":"e1"}`)
	postWithKey(router, "", `{"event_id":"e1"}`)

	require.Equal(t, 2, hits, "requests without a key are not deduplicated")
}

func TestIdempotency_DistinctKeysRunSeparately(t *testing.T) {
	hits := 0
	router := newIdempotentRouter(t, &hits)

	postWithKey(router, "key-1", `{"event_id":"e1"}`)
	postWithKey(router, "key-2", `{"event_id":"e1"}`)

	require.Equal(t, 2, hits)
}
