package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, method, path, remoteAddr string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(r, http.MethodGet, "/ping", "", nil)
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	w = serve(r, http.MethodGet, "/ping", "", http.Header{RequestIDHeader: {"caja-3-000142"}})
	assert.Equal(t, "caja-3-000142", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "caja-3-000142", w.Body.String())
}

func TestRequestID_RejectsOversizedHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'x'
	}
	w := serve(r, http.MethodGet, "/ping", "", http.Header{RequestIDHeader: {string(long)}})
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(2, time.Minute))
	r.GET("/v1/products", func(c *gin.Context) { c.Status(http.StatusOK) })

	const ip = "203.0.113.7:4000"
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/v1/products", ip, nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/v1/products", ip, nil).Code)

	w := serve(r, http.MethodGet, "/v1/products", ip, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"detail"`)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/v1/products", "203.0.113.8:4000", nil).Code)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(1, 20*time.Millisecond))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	const ip = "203.0.113.9:4000"
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", ip, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/", ip, nil).Code)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", ip, nil).Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(0, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", "203.0.113.10:4000", nil).Code)
	}
}

func TestRecoveryHidesPanic(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("nil map write in handler") })

	w := serve(r, http.MethodGet, "/boom", "", http.Header{RequestIDHeader: {"req-77"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Error interno del servidor","request_id":"req-77"}`, w.Body.String())
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/err", func(c *gin.Context) { _ = c.Error(errors.New("pq: relation does not exist")) })

	w := serve(r, http.MethodGet, "/err", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(nil))
	r.GET("/v1/sales", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/v1/sales", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodOptions, "/v1/sales", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), RequestIDHeader)
}

func TestIPLimiter_SweepsExpiredWindows(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	l := newIPLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	ok, _ := l.allow("198.51.100.1")
	assert.True(t, ok)
	ok, retry := l.allow("198.51.100.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	now = now.Add(6 * time.Minute)
	ok, _ = l.allow("198.51.100.2")
	assert.True(t, ok)
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "198.51.100.2")
}

func TestCORS_AllowList(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://caja.botica.pe"}))
	r.GET("/v1/products", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/v1/products", "", http.Header{"Origin": {"https://caja.botica.pe"}})
	assert.Equal(t, "https://caja.botica.pe", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	w = serve(r, http.MethodGet, "/v1/products", "", http.Header{"Origin": {"https://evil.example"}})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
