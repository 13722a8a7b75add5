package captcha

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	data, err := r.Render("WXYZ")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, imageWidth, img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}

func TestRenderer_Render_DiffersByText(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	a, err := r.Render("AAAA")
	require.NoError(t, err)
	b, err := r.Render("ZZZZ")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRenderer_Render_EmptyText(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	_, err = r.Render("")
	assert.Error(t, err)
}
