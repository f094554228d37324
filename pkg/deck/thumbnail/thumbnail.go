// Package thumbnail draws the small JPEG preview stored in a deck's
// docProps/thumbnail.jpeg. File browsers show it instead of rendering the
// first slide.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/benjaminschreck/go-deck/pkg/deck/pml"
)

// Preview dimensions in pixels.
const (
	Width  = 256
	Height = 144
)

const (
	margin    = 12
	maxLines  = 5
	accentBar = 6
	quality   = 80
)

// Render draws the title on the style's background and encodes it as JPEG.
// Long titles are wrapped and truncated with an ellipsis.
func Render(title string, style pml.Style) ([]byte, error) {
	bg, err := parseRGB(style.Background)
	if err != nil {
		return nil, err
	}
	fg, err := parseRGB(style.TitleColor)
	if err != nil {
		return nil, err
	}
	accent, err := parseRGB(style.Accent)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, Height-accentBar, Width, Height), image.NewUniform(accent), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(fg), Face: face}
	lineHeight := face.Metrics().Height.Ceil()
	for i, line := range wrap(d, title, Width-2*margin) {
		d.Dot = fixed.P(margin, margin+face.Metrics().Ascent.Ceil()+i*lineHeight)
		d.DrawString(line)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// wrap breaks text into lines no wider than width pixels. Words wider than
// a line are split; more than maxLines lines end with "...".
func wrap(d *font.Drawer, text string, width int) []string {
	limit := fixed.I(width)
	var lines []string
	var cur string
	flush := func() {
		lines = append(lines, cur)
		cur = ""
	}
	for _, word := range strings.Fields(text) {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if d.MeasureString(candidate) <= limit {
			cur = candidate
			continue
		}
		if cur != "" {
			flush()
		}
		for d.MeasureString(word) > limit {
			n := fit(d, word, limit)
			lines = append(lines, word[:n])
			word = word[n:]
		}
		cur = word
	}
	if cur != "" {
		flush()
	}

	if len(lines) > maxLines {
		lines = lines[:maxLines]
		last := lines[maxLines-1]
		for last != "" && d.MeasureString(last+"...") > limit {
			_, size := utf8.DecodeLastRuneInString(last)
			last = last[:len(last)-size]
		}
		lines[maxLines-1] = last + "..."
	}
	return lines
}

// fit returns the byte length of the longest prefix of word that fits,
// at least one rune.
func fit(d *font.Drawer, word string, limit fixed.Int26_6) int {
	n := 0
	for i := range word {
		if i > 0 && d.MeasureString(word[:i]) > limit {
			break
		}
		n = i
	}
	if n == 0 {
		for i := range word {
			if i > 0 {
				return i
			}
		}
		return len(word)
	}
	return n
}

func parseRGB(hex string) (color.RGBA, error) {
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
