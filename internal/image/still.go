package image

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// DefaultJPEGQuality is the quality used when StillOptions leaves it unset.
const DefaultJPEGQuality = 75

// StillOptions controls how a decoded frame is turned into a still.
type StillOptions struct {
	// Quality is the JPEG quality, 1-100.
	Quality int
	// MaxDimension downscales frames whose longer side exceeds it. Zero keeps
	// the original size.
	MaxDimension int
}

// EncodeStill encodes img as a JPEG, downscaling first if requested.
func EncodeStill(img image.Image, opts StillOptions) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("image has no pixels")
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Downscale(img, opts.MaxDimension), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeStill decodes any registered still format.
func DecodeStill(data []byte) (image.Image, error) {
	return decode(bytes.NewReader(data))
}

// Still round-trips img through JPEG so the quantizer sees the same lossy
// still regardless of how the frame was decoded.
func Still(img image.Image, opts StillOptions) (image.Image, error) {
	data, err := EncodeStill(img, opts)
	if err != nil {
		return nil, err
	}
	return DecodeStill(data)
}

// Downscale fits img within maxDim x maxDim preserving aspect ratio.
// Images already small enough, or maxDim <= 0, are returned unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	nw, nh := maxDim, maxDim
	if w >= h {
		nh = max(1, h*maxDim/w)
	} else {
		nw = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
