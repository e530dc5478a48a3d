package handlers

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

func TestScoreShowRejectsNonBasenames(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	h := NewScoreHandler(testLogger())

	for _, name := range []string{"../evil.pdf", "sub/evil.pdf", ""} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "basename", Value: name}}

		h.Show(c)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("Show(%q) status = %d, want 400", name, w.Code)
		}
	}
}
