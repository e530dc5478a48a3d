package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amolab/amorate-backend/internal/platform/logger"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func newLimitedRouter(perMinute int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/submit", SubmitRateLimit(perMinute, testLogger()), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestSubmitRateLimitThrottlesBurst(t *testing.T) {
	t.Parallel()
	r := newLimitedRouter(1)

	statuses := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		r.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}
	if statuses[0] != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", statuses[0])
	}
	if statuses[1] != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", statuses[1])
	}
}

func TestSubmitRateLimitIsPerIP(t *testing.T) {
	t.Parallel()
	r := newLimitedRouter(1)

	for i, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = addr
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d from %s status = %d, want 200", i, addr, w.Code)
		}
	}
}

func TestSubmitRateLimitDisabled(t *testing.T) {
	t.Parallel()
	r := newLimitedRouter(0)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200 with limiter off", i, w.Code)
		}
	}
}
