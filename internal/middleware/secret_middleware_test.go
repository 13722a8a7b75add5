package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newSecretRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhook", WebhookSecret(secret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestWebhookSecret(t *testing.T) {
	router := newSecretRouter("s3cret")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"верный секрет", "s3cret", http.StatusOK},
		{"неверный секрет", "wrong", http.StatusUnauthorized},
		{"пустой заголовок", "", http.StatusUnauthorized},
		{"секрет с лишним суффиксом", "s3cret1", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook", nil)
			if tt.header != "" {
				req.Header.Set("X-Telegram-Bot-Api-Secret-Token", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
