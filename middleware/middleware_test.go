package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(perMin int) *gin.Engine {
	r := gin.New()
	r.Use(AccessLog(zap.NewNop()), RateLimitMiddleware(perMin))
	r.GET("/ping", func(c *gin.Context) {
		if RequestLogger(c) == nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, getClientIP(c))
	})
	return r
}

func get(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerIP(t *testing.T) {
	r := newRouter(2)

	for i := 0; i < 2; i++ {
		if w := get(r, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}
	if w := get(r, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d, want 429", w.Code)
	}
	if w := get(r, map[string]string{"X-Forwarded-For": "203.0.113.7"}); w.Code != http.StatusOK {
		t.Fatalf("other client throttled: %d", w.Code)
	}
}

func TestClientIPResolution(t *testing.T) {
	r := newRouter(0)
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"peer address", nil, "10.0.0.9"},
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"garbage forwarded falls back to real ip", map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.headers)
			if w.Body.String() != tt.want {
				t.Errorf("ip = %q, want %q", w.Body.String(), tt.want)
			}
			if w.Header().Get(requestIDHeader) == "" {
				t.Error("missing request id header")
			}
		})
	}
}

func TestAdminTokenMiddleware(t *testing.T) {
	for _, tc := range []struct {
		name, configured, sent string
		want                   int
	}{
		{"match", "s3cret", "s3cret", http.StatusOK},
		{"mismatch", "s3cret", "guess", http.StatusUnauthorized},
		{"unconfigured", "", "", http.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(AdminTokenMiddleware(tc.configured))
			r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
			if w := get(r, map[string]string{"X-Admin-Token": tc.sent}); w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
