package usecase

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAssetPalette(t *testing.T) {
	site := newFakeSite(library()...)
	site.thumbnails = map[string][]byte{
		"inbox-land": solidPNG(t, color.RGBA{R: 200, G: 30, B: 30, A: 255}),
		"broken":     []byte("not an image"),
	}
	u, _, cache := newTestUsecase(site)
	ctx := context.Background()

	colors, err := u.AssetPalette(ctx, "inbox-land")
	require.NoError(t, err)
	require.NotEmpty(t, colors)
	assert.Regexp(t, `^#[0-9A-Fa-f]{6}$`, colors[0])
	assert.Equal(t, colors, cache.palettes["inbox-land"])

	cache.palettes["inbox-land"] = []string{"#000000"}
	colors, err = u.AssetPalette(ctx, "inbox-land")
	require.NoError(t, err)
	assert.Equal(t, []string{"#000000"}, colors)

	_, err = u.AssetPalette(ctx, "broken")
	assert.Error(t, err)
	_, err = u.AssetPalette(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweepPalettes(t *testing.T) {
	site := newFakeSite(library()...)
	site.thumbnails = map[string][]byte{
		"publish-square": solidPNG(t, color.RGBA{B: 255, A: 255}),
		"review-port":    solidPNG(t, color.RGBA{G: 255, A: 255}),
		"inbox-land":     solidPNG(t, color.RGBA{R: 255, A: 255}),
	}
	u, _, cache := newTestUsecase(site)
	cache.palettes["review-port"] = []string{"#00FF00"}

	n, err := u.SweepPalettes(context.Background(), 3)
	require.NoError(t, err)
	// newest three: publish-square, review-port (cached), inbox-land
	assert.Equal(t, 2, n)
	assert.Contains(t, cache.palettes, "publish-square")
	assert.Contains(t, cache.palettes, "inbox-land")
	assert.NotContains(t, cache.palettes, "publish-tagged")
}
