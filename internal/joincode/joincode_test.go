package joincode

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokens(t *testing.T) {
	tokens, err := NewTokens(50)
	require.NoError(t, err)
	require.Len(t, tokens, 50)

	hexToken := regexp.MustCompile(`^[0-9a-f]{6}$`)
	seen := map[string]bool{}
	for _, tok := range tokens {
		assert.Regexp(t, hexToken, tok)
		assert.False(t, seen[tok], "duplicate token %s", tok)
		seen[tok] = true
	}
}

func TestLink(t *testing.T) {
	assert.Equal(t, "https://t.me/arena_bot?start=a1b2c3", Link("arena_bot", "a1b2c3"))
}

func TestRenderer_PNG(t *testing.T) {
	r := DefaultRenderer()
	r.Size = 200

	data, err := r.PNG(Link("arena_bot", "a1b2c3"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, b.Dx(), b.Dy())
	assert.LessOrEqual(t, b.Dx(), 200)
	assert.Greater(t, b.Dx(), 100)
}

func TestRenderer_Template(t *testing.T) {
	tpl := image.NewRGBA(image.Rect(0, 0, 400, 500))
	for y := 0; y < 500; y++ {
		for x := 0; x < 400; x++ {
			tpl.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	r := DefaultRenderer()
	r.Template = tpl
	r.Offset = image.Pt(50, 100)
	r.Size = 250

	data, err := r.PNG("https://t.me/arena_bot?start=ffffff")
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 400, 500), img.Bounds())
	red, _, _, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(200)*0x101, red, "template untouched outside the code")
	// Top-left module of a QR code is always part of a finder pattern.
	fr, fg, fb, _ := img.At(51, 101).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{fr, fg, fb})
}

func TestRenderer_Archive(t *testing.T) {
	r := DefaultRenderer()
	r.Size = 100
	data, err := r.Archive("arena_bot", []string{"aaaaaa", "bbbbbb"})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"aaaaaa.png", "bbbbbb.png"}, names)
}

func TestPrintTerminal(t *testing.T) {
	var buf bytes.Buffer
	PrintTerminal(&buf, "https://t.me/arena_bot?start=a1b2c3")
	assert.True(t, strings.Contains(buf.String(), "█"))
	assert.Greater(t, strings.Count(buf.String(), "\n"), 10)
}
