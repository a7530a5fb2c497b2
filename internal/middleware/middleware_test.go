package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/book-lending/internal/config"
	"github.com/iliyamo/book-lending/internal/utils"
)

func serve(e *echo.Echo, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"id": c.Get(CtxUserID), "wallet": c.Get(CtxWallet)})
	}, JWTAuth("secret"))

	rec := serve(e, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Access token required"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	tok, err := utils.NewAccessToken("secret", "u-1", "0xabc", time.Hour)
	require.NoError(t, err)
	rec = serve(e, http.MethodGet, "/me", map[string]string{"Authorization": "Bearer " + tok.Token})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"u-1","wallet":"0xabc"}`, rec.Body.String())
}

func TestLocalRateLimit(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	cfg := config.RateLimitConfig{Enabled: true, Window: time.Minute, Max: 2, KeyStrategy: "ip", Prefix: "rl"}

	e := echo.New()
	e.Use(RateLimit(cfg, nil, log))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodGet, "/ping", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}
	rec := serve(e, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests")

	// A different client has its own budget.
	rec = serve(e, http.MethodGet, "/ping", map[string]string{"X-Real-Ip": "10.0.0.9"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	e := echo.New()
	e.Use(RateLimit(config.RateLimitConfig{Enabled: false, Max: 1, Window: time.Minute}, nil, log))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/ping", nil).Code)
	}
}

func TestResponseCacheWithoutRedisPassesThrough(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	cfg := config.CacheConfig{Enabled: true, Routes: map[string]bool{"/api/books": true}, Prefix: "cache:books"}
	e := echo.New()
	e.GET("/api/books", func(c echo.Context) error { return c.JSON(http.StatusOK, []string{}) }, ResponseCache(cfg, nil, log))

	rec := serve(e, http.MethodGet, "/api/books", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCachePayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`[1]`))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `[1]`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", m.Handler())

	serve(e, http.MethodGet, "/health", nil)
	rec := serve(e, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `booklend_http_requests_total{method="GET",route="/health",status="200"} 1`))
}

func TestAccessLog(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	e := echo.New()
	e.Use(AccessLog(log))
	e.GET("/missing", func(c echo.Context) error { return c.JSON(http.StatusNotFound, echo.Map{"error": "x"}) })

	serve(e, http.MethodGet, "/missing", nil)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "/missing", entry.Data["route"])
}
