// Package joincode creates one-time registration tokens and renders them as
// QR codes pointing at the bot's deep link.
package joincode

import (
	"archive/zip"
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"github.com/mdp/qrterminal/v3"
	"rsc.io/qr"
)

const tokenBytes = 3

// NewTokens returns n distinct random hex tokens.
func NewTokens(n int) ([]string, error) {
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	buf := make([]byte, tokenBytes)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		tok := hex.EncodeToString(buf)
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out, nil
}

// Link is the deep link that starts the bot with token as payload.
func Link(botUsername, token string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, token)
}

// Renderer draws QR codes, optionally onto a template image.
type Renderer struct {
	// Template is the background image; nil renders a bare code.
	Template image.Image
	// Offset is the top-left corner of the code on the template.
	Offset image.Point
	// Size is the side of the rendered code in pixels.
	Size int
	Fg   color.Color
	Bg   color.Color
}

// DefaultRenderer renders white codes on a dark background, 750px wide.
func DefaultRenderer() Renderer {
	return Renderer{
		Offset: image.Pt(150, 650),
		Size:   750,
		Fg:     color.White,
		Bg:     color.RGBA{R: 0x14, G: 0x14, B: 0x14, A: 0xff},
	}
}

// LoadTemplate reads a PNG background.
func LoadTemplate(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode template %s: %w", path, err)
	}
	return img, nil
}

// Code renders the QR code for text as an image of Size pixels.
func (r Renderer) Code(text string) (image.Image, error) {
	code, err := qr.Encode(text, qr.L)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	scale := r.Size / code.Size
	if scale < 1 {
		scale = 1
	}
	side := code.Size * scale
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.Bg), image.Point{}, draw.Src)
	fg := image.NewUniform(r.Fg)
	for y := 0; y < code.Size; y++ {
		for x := 0; x < code.Size; x++ {
			if code.Black(x, y) {
				cell := image.Rect(x*scale, y*scale, (x+1)*scale, (y+1)*scale)
				draw.Draw(img, cell, fg, image.Point{}, draw.Src)
			}
		}
	}
	return img, nil
}

// PNG renders text as a PNG, composited onto the template when one is set.
func (r Renderer) PNG(text string) ([]byte, error) {
	code, err := r.Code(text)
	if err != nil {
		return nil, err
	}
	out := code
	if r.Template != nil {
		b := r.Template.Bounds()
		canvas := image.NewRGBA(b)
		draw.Draw(canvas, b, r.Template, b.Min, draw.Src)
		at := code.Bounds().Add(b.Min.Add(r.Offset))
		draw.Draw(canvas, at, code, image.Point{}, draw.Over)
		out = canvas
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Archive renders one QR code per token and zips them as <token>.png.
func (r Renderer) Archive(botUsername string, tokens []string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, tok := range tokens {
		data, err := r.PNG(Link(botUsername, tok))
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", tok, err)
		}
		w, err := zw.Create(tok + ".png")
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PrintTerminal writes the link's QR code as half-block characters.
func PrintTerminal(w io.Writer, link string) {
	qrterminal.GenerateWithConfig(link, qrterminal.Config{
		Level:          qrterminal.L,
		Writer:         w,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      1,
	})
}
