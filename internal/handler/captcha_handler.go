package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/gatekeeper-bot/internal/captcha"
)

// CaptchaHandler отдаёт PNG-картинку капчи по query-параметру text.
// Эндпоинт публичный: на него указывает URL фото в сообщении-вызове.
type CaptchaHandler struct {
	renderer *captcha.Renderer
}

// NewCaptchaHandler создает обработчик картинок капчи.
func NewCaptchaHandler(renderer *captcha.Renderer) *CaptchaHandler {
	return &CaptchaHandler{renderer: renderer}
}

// HandleImage рендерит и отдаёт картинку.
func (h *CaptchaHandler) HandleImage(c *gin.Context) {
	text := c.Query("text")
	if text == "" || len(text) > 16 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid text parameter"})
		return
	}

	img, err := h.renderer.Render(text)
	if err != nil {
		log.Printf("Captcha: ошибка рендеринга %q: %v", text, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render captcha"})
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}
