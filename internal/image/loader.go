// Package image loads stills from disk and produces the lossy JPEG stills
// palettes are extracted from.
package image

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"io/fs"
	"os"

	_ "golang.org/x/image/webp" // Register WebP format
)

// ErrNotAFile is returned when a load path names a directory.
var ErrNotAFile = errors.New("not a regular file")

// Loader opens a still image by path. The score command uses it to run the
// frame computation on a single picture.
type Loader interface {
	Load(path string) (image.Image, error)
}

// FileLoader loads JPEG, PNG, GIF and WebP stills from the local filesystem.
type FileLoader struct{}

// NewFileLoader returns a FileLoader.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

func (l *FileLoader) Load(path string) (image.Image, error) {
	if path == "" {
		return nil, errors.New("image path cannot be empty")
	}

	file, err := os.Open(path) // #nosec G304 - user-specified image path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotAFile)
	}

	img, err := decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// decode is shared by file loading and the JPEG still round trip.
func decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		if format == "" {
			format = "unknown"
		}
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}
	return img, nil
}
