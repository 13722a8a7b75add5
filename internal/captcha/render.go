// Package captcha рендерит PNG-картинку с шифром для фото-капчи.
package captcha

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	imageWidth  = 200
	imageHeight = 100
	fontSize    = 24.0
)

// Renderer рисует шифр чёрными глифами на белом холсте,
// равномерно разнося символы по ширине.
type Renderer struct {
	face font.Face
}

// NewRenderer создает рендерер со встроенным шрифтом Go Regular.
func NewRenderer() (*Renderer, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: fontSize, DPI: 72})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return &Renderer{face: face}, nil
}

// Render возвращает PNG с текстом шифра.
func (r *Renderer) Render(text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("captcha text is empty")
	}

	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: r.face,
	}

	totalWidth := font.MeasureString(r.face, text).Ceil()
	spacing := (imageWidth - totalWidth) / (len(text) + 1)
	if spacing < 0 {
		spacing = 0
	}
	x := spacing
	y := (imageHeight + int(fontSize)) / 2

	for _, char := range text {
		drawer.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
		drawer.DrawString(string(char))
		x += font.MeasureString(r.face, string(char)).Ceil() + spacing
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode captcha png: %w", err)
	}
	return buf.Bytes(), nil
}
