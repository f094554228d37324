package pml

import (
	"fmt"
	"sort"
	"strings"
)

// Length units. DrawingML positions are in English Metric Units.
const (
	EMUPerInch  = 914400
	EMUPerPoint = 12700
)

// Inches converts inches to EMU.
func Inches(in float64) int64 {
	return int64(in * EMUPerInch)
}

// Frame is the position and size of a shape, in EMU.
type Frame struct {
	X, Y, CX, CY int64
}

// Style is the single knob that distinguishes deck variants: slide size,
// fonts, colors and the fixed shape frames. Frames are constant per style;
// a picture is stretched into PictureFrame whatever its pixel dimensions.
type Style struct {
	Name string

	SlideWidth  int64
	SlideHeight int64
	// SizeType is the sldSz type attribute ("screen4x3", "custom", ...).
	SizeType string
	// Format is reported as PresentationFormat in the extended properties.
	Format string

	TitleFont string
	BodyFont  string
	// Sizes are in hundredths of a point.
	TitleSize int
	BodySize  int

	// Colors are RRGGBB hex strings.
	Background string
	TitleColor string
	BodyColor  string
	Accent     string

	BodyBullets bool

	TitleFrame Frame
	// BodyFrame is used on slides without a picture, BodyBesidePicture on
	// slides with one.
	BodyFrame         Frame
	BodyBesidePicture Frame
	PictureFrame      Frame
}

// Classic is a 4:3 light deck.
var Classic = Style{
	Name:        "classic",
	SlideWidth:  Inches(10),
	SlideHeight: Inches(7.5),
	SizeType:    "screen4x3",
	Format:      "On-screen Show (4:3)",
	TitleFont:   "Calibri Light",
	BodyFont:    "Calibri",
	TitleSize:   4000,
	BodySize:    2400,
	Background:  "FFFFFF",
	TitleColor:  "1F2937",
	BodyColor:   "374151",
	Accent:      "3B82F6",
	BodyBullets: true,

	TitleFrame:        Frame{X: Inches(0.5), Y: Inches(0.4), CX: Inches(9), CY: Inches(1.2)},
	BodyFrame:         Frame{X: Inches(0.5), Y: Inches(1.8), CX: Inches(9), CY: Inches(5.2)},
	BodyBesidePicture: Frame{X: Inches(0.5), Y: Inches(1.8), CX: Inches(4.6), CY: Inches(5.2)},
	PictureFrame:      Frame{X: Inches(5.3), Y: Inches(1.8), CX: Inches(4.2), CY: Inches(3.15)},
}

// Widescreen is a 16:9 light deck.
var Widescreen = Style{
	Name:        "widescreen",
	SlideWidth:  12192000,
	SlideHeight: 6858000,
	SizeType:    "custom",
	Format:      "Widescreen",
	TitleFont:   "Calibri Light",
	BodyFont:    "Calibri",
	TitleSize:   4400,
	BodySize:    2400,
	Background:  "FFFFFF",
	TitleColor:  "111827",
	BodyColor:   "374151",
	Accent:      "2563EB",
	BodyBullets: true,

	TitleFrame:        Frame{X: Inches(0.6), Y: Inches(0.4), CX: Inches(12.13), CY: Inches(1.2)},
	BodyFrame:         Frame{X: Inches(0.6), Y: Inches(1.8), CX: Inches(12.13), CY: Inches(5.2)},
	BodyBesidePicture: Frame{X: Inches(0.6), Y: Inches(1.8), CX: Inches(6.2), CY: Inches(5.2)},
	PictureFrame:      Frame{X: Inches(7.1), Y: Inches(1.8), CX: Inches(5.6), CY: Inches(4.2)},
}

// Dark is Widescreen on a dark background without bullets.
var Dark = func() Style {
	s := Widescreen
	s.Name = "dark"
	s.Background = "0F172A"
	s.TitleColor = "F8FAFC"
	s.BodyColor = "CBD5E1"
	s.Accent = "38BDF8"
	s.BodyBullets = false
	return s
}()

var styles = map[string]Style{
	Classic.Name:    Classic,
	Widescreen.Name: Widescreen,
	Dark.Name:       Dark,
}

// StyleByName looks up a built-in style, case-insensitively.
func StyleByName(name string) (Style, bool) {
	s, ok := styles[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// StyleNames lists the built-in styles.
func StyleNames() []string {
	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports styles that would produce an unusable deck.
func (s Style) Validate() error {
	if s.SlideWidth <= 0 || s.SlideHeight <= 0 {
		return fmt.Errorf("style %q: slide size must be positive", s.Name)
	}
	for name, c := range map[string]string{"background": s.Background, "title": s.TitleColor, "body": s.BodyColor, "accent": s.Accent} {
		if !isHexColor(c) {
			return fmt.Errorf("style %q: %s color %q is not RRGGBB", s.Name, name, c)
		}
	}
	for name, f := range map[string]Frame{"title": s.TitleFrame, "body": s.BodyFrame, "body beside picture": s.BodyBesidePicture, "picture": s.PictureFrame} {
		if f.CX <= 0 || f.CY <= 0 || f.X < 0 || f.Y < 0 || f.X+f.CX > s.SlideWidth || f.Y+f.CY > s.SlideHeight {
			return fmt.Errorf("style %q: %s frame does not fit the slide", s.Name, name)
		}
	}
	return nil
}

func isHexColor(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}
