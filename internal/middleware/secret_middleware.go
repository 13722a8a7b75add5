package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// secretHeader — заголовок, которым Bot API подписывает вызовы вебхука.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecret проверяет общий секрет вебхука.
// Сравнение константное по времени, как и для кодов верификации.
func WebhookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(secretHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
