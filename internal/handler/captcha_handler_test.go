package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/gatekeeper-bot/internal/captcha"
)

func newCaptchaRouter(t *testing.T) *gin.Engine {
	t.Helper()
	renderer, err := captcha.NewRenderer()
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/captcha", NewCaptchaHandler(renderer).HandleImage)
	return router
}

func TestCaptchaHandler_RendersPNG(t *testing.T) {
	router := newCaptchaRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/captcha?text=WXYZ", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	// Сигнатура PNG
	assert.True(t, len(w.Body.Bytes()) > 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, w.Body.Bytes()[:4])
}

func TestCaptchaHandler_RejectsBadText(t *testing.T) {
	router := newCaptchaRouter(t)

	for _, path := range []string{"/captcha", "/captcha?text=", "/captcha?text=WAYTOOLONGFORACAPTCHA"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, "path: %s", path)
	}
}
