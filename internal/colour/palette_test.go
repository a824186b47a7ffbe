package colour

import (
	"errors"
	"image/color"
	"testing"
)

func TestToRGB(t *testing.T) {
	tests := []struct {
		name  string
		color color.Color
		want  RGB
	}{
		{
			name:  "red",
			color: color.RGBA{R: 255, G: 0, B: 0, A: 255},
			want:  RGB{R: 255, G: 0, B: 0},
		},
		{
			name:  "gray16",
			color: color.Gray16{Y: 0x8080},
			want:  RGB{R: 0x80, G: 0x80, B: 0x80},
		},
		{
			name:  "nrgba",
			color: color.NRGBA{R: 12, G: 34, B: 56, A: 255},
			want:  RGB{R: 12, G: 34, B: 56},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToRGB(tt.color); got != tt.want {
				t.Errorf("ToRGB() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRGBHex(t *testing.T) {
	tests := []struct {
		rgb  RGB
		want string
	}{
		{RGB{R: 255, G: 0, B: 0}, "#ff0000"},
		{RGB{R: 0, G: 0, B: 0}, "#000000"},
		{RGB{R: 1, G: 171, B: 205}, "#01abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.rgb.Hex(); got != tt.want {
				t.Errorf("Hex() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RGB
		wantErr bool
	}{
		{name: "lowercase", input: "#1a2b3c", want: RGB{R: 0x1a, G: 0x2b, B: 0x3c}},
		{name: "uppercase", input: "#1A2B3C", want: RGB{R: 0x1a, G: 0x2b, B: 0x3c}},
		{name: "no hash", input: "ffffff", want: RGB{R: 255, G: 255, B: 255}},
		{name: "shorthand", input: "#f0a", want: RGB{R: 0xff, G: 0x00, B: 0xaa}},
		{name: "surrounding space", input: " #000000 ", want: RGB{}},
		{name: "sentinel", input: "NONE", wantErr: true},
		{name: "too long", input: "#1234567", wantErr: true},
		{name: "bad digit", input: "#12345g", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidHex) {
					t.Fatalf("ParseHex(%q) error = %v, want ErrInvalidHex", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHex(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPaletteString(t *testing.T) {
	p := NewPalette([]RGB{{R: 255}, {G: 255}, {B: 255}})
	if got, want := p.String(), "#ff0000,#00ff00,#0000ff"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}

	parsed, err := ParsePalette(p.String())
	if err != nil {
		t.Fatalf("ParsePalette() error: %v", err)
	}
	if parsed.Len() != 3 || parsed.Colors[2] != (RGB{B: 255}) {
		t.Errorf("ParsePalette() = %v", parsed.Colors)
	}
}

func TestParsePaletteErrors(t *testing.T) {
	if _, err := ParsePalette(""); !errors.Is(err, ErrEmptyPalette) {
		t.Errorf("ParsePalette(\"\") error = %v, want ErrEmptyPalette", err)
	}
	if _, err := ParsePalette("NONE"); !errors.Is(err, ErrInvalidHex) {
		t.Errorf("ParsePalette(NONE) error = %v, want ErrInvalidHex", err)
	}
	if _, err := ParsePalette("#000000,,#ffffff"); err == nil {
		t.Error("ParsePalette() with empty entry should fail")
	}
}

func TestPaletteLenNil(t *testing.T) {
	var p *Palette
	if p.Len() != 0 {
		t.Errorf("nil palette Len() = %d, want 0", p.Len())
	}
	if p.String() != "" {
		t.Errorf("nil palette String() = %q, want empty", p.String())
	}
}

func TestFromColorfulRoundTrip(t *testing.T) {
	for _, rgb := range []RGB{{}, {R: 255, G: 255, B: 255}, {R: 12, G: 200, B: 99}} {
		if got := FromColorful(rgb.Colorful()); got != rgb {
			t.Errorf("FromColorful(%v.Colorful()) = %v", rgb, got)
		}
	}
}
