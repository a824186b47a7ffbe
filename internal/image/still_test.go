package image

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestDownscale(t *testing.T) {
	tests := []struct {
		name         string
		w, h, maxDim int
		wantW, wantH int
	}{
		{name: "disabled", w: 200, h: 100, maxDim: 0, wantW: 200, wantH: 100},
		{name: "already small", w: 64, h: 32, maxDim: 100, wantW: 64, wantH: 32},
		{name: "landscape", w: 200, h: 100, maxDim: 50, wantW: 50, wantH: 25},
		{name: "portrait", w: 90, h: 180, maxDim: 60, wantW: 30, wantH: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Downscale(gradient(tt.w, tt.h), tt.maxDim).Bounds()
			if got.Dx() != tt.wantW || got.Dy() != tt.wantH {
				t.Errorf("Downscale() = %dx%d, want %dx%d", got.Dx(), got.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestStillRoundTrip(t *testing.T) {
	img, err := Still(gradient(64, 48), StillOptions{Quality: 90})
	if err != nil {
		t.Fatalf("Still() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("Still() bounds = %v, want 64x48", b)
	}
}

func TestEncodeStillRejectsEmpty(t *testing.T) {
	if _, err := EncodeStill(nil, StillOptions{}); err == nil {
		t.Error("EncodeStill(nil) should fail")
	}
	if _, err := EncodeStill(image.NewRGBA(image.Rectangle{}), StillOptions{}); err == nil {
		t.Error("EncodeStill(empty) should fail")
	}
}

func TestDecodeStillRejectsGarbage(t *testing.T) {
	if _, err := DecodeStill([]byte("not an image")); err == nil {
		t.Error("DecodeStill(garbage) should fail")
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, gradient(8, 8)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	loader := NewFileLoader()
	img, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("Load() width = %d, want 8", img.Bounds().Dx())
	}

	if _, err := loader.Load(dir); !errors.Is(err, ErrNotAFile) {
		t.Errorf("Load(dir) error = %v, want ErrNotAFile", err)
	}
	if _, err := loader.Load(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Load(missing) should fail")
	}
	if _, err := loader.Load(""); err == nil {
		t.Error("Load(\"\") should fail")
	}
}
