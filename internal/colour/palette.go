// Package colour provides the colour types, reference palette and contrast
// scoring used by the frame pipeline.
package colour

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	// ErrInvalidHex is returned when a string is not a #rrggbb or #rgb colour.
	ErrInvalidHex = errors.New("invalid hex colour")

	// ErrEmptyPalette is returned when a palette with no colours is scored.
	ErrEmptyPalette = errors.New("palette has no colours")
)

// paletteSeparator joins hex colours in the persisted palette form.
const paletteSeparator = ","

// RGB represents a colour with 8-bit channels.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB color as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// Colorful converts the colour into go-colorful's float representation.
func (rgb RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(rgb.R) / 255.0,
		G: float64(rgb.G) / 255.0,
		B: float64(rgb.B) / 255.0,
	}
}

// StdColor returns the colour as a fully opaque color.RGBA.
func (rgb RGB) StdColor() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// ToRGB converts a color.Color to RGB.
func ToRGB(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	// RGBA returns values in the range [0, 65535], convert to [0, 255]
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// FromColorful converts a go-colorful colour back to clamped 8-bit channels.
func FromColorful(c colorful.Color) RGB {
	r, g, b := c.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// ParseHex parses "#rrggbb" or "#rgb" (the leading '#' is optional).
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
	}

	var out [3]uint8
	for i := range out {
		hi, ok1 := hexNibble(h[2*i])
		lo, ok2 := hexNibble(h[2*i+1])
		if !ok1 || !ok2 {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, s)
		}
		out[i] = hi<<4 | lo
	}
	return RGB{R: out[0], G: out[1], B: out[2]}, nil
}

// MustParseHex is ParseHex for constants known to be valid.
func MustParseHex(s string) RGB {
	rgb, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return rgb
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Palette represents the ordered dominant colours of one frame.
type Palette struct {
	Colors []RGB
}

// NewPalette creates a new Palette with the given colors.
func NewPalette(colors []RGB) *Palette {
	return &Palette{
		Colors: colors,
	}
}

// ParsePalette parses the comma-joined hex form produced by Palette.String.
func ParsePalette(s string) (*Palette, error) {
	if strings.TrimSpace(s) == "" {
		return nil, ErrEmptyPalette
	}
	parts := strings.Split(s, paletteSeparator)
	colors := make([]RGB, len(parts))
	for i, part := range parts {
		rgb, err := ParseHex(part)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i, err)
		}
		colors[i] = rgb
	}
	return NewPalette(colors), nil
}

// Len returns the number of colors in the palette.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Colors)
}

// ToHex converts the palette colors to hex strings.
func (p *Palette) ToHex() []string {
	if p == nil {
		return nil
	}
	hexColors := make([]string, len(p.Colors))
	for i, c := range p.Colors {
		hexColors[i] = c.Hex()
	}
	return hexColors
}

// String returns the persisted form: hex colours joined by commas.
func (p *Palette) String() string {
	return strings.Join(p.ToHex(), paletteSeparator)
}

// All returns an iterator over all colors in the palette.
func (p *Palette) All() func(func(int, RGB) bool) {
	return func(yield func(int, RGB) bool) {
		if p == nil {
			return
		}
		for i, c := range p.Colors {
			if !yield(i, c) {
				return
			}
		}
	}
}
