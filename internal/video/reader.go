// Package video lists video files and decodes them into frames.
package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExtensions are the container extensions picked up from a source directory.
var DefaultExtensions = []string{".mkv", ".mp4", ".webm"}

// ErrNoVideoStream is returned when a file has no decodable video stream.
var ErrNoVideoStream = errors.New("no video stream")

// Reader opens videos for sequential frame decoding.
type Reader interface {
	Open(ctx context.Context, path string) (Stream, error)
}

// Stream yields decoded frames in presentation order.
// Next returns io.EOF once the stream is exhausted.
type Stream interface {
	Next() (image.Image, error)
	Close() error
}

// ListVideos returns the files in dir whose extension is in exts, sorted by
// name. Matching is case-insensitive. A nil exts uses DefaultExtensions.
func ListVideos(dir string, exts []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	if exts == nil {
		exts = DefaultExtensions
	}

	var videos []string
	for _, entry := range entries {
		fullPath := filepath.Join(dir, entry.Name())

		// Stat rather than entry.Type so symlinks resolve to their targets.
		info, err := os.Stat(fullPath)
		if err != nil || info.IsDir() {
			continue
		}
		if hasExtension(entry.Name(), exts) {
			videos = append(videos, fullPath)
		}
	}

	slices.Sort(videos)
	return videos, nil
}

// Name is the identifier stored for a video: its base file name.
func Name(path string) string {
	return filepath.Base(path)
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, want := range exts {
		want = strings.ToLower(want)
		if !strings.HasPrefix(want, ".") {
			want = "." + want
		}
		if ext == want {
			return true
		}
	}
	return false
}

// rawStream decodes packed rgb24 frames of a fixed size from r.
type rawStream struct {
	r      io.Reader
	width  int
	height int
	buf    []byte
}

func newRawStream(r io.Reader, width, height int) *rawStream {
	return &rawStream{r: r, width: width, height: height, buf: make([]byte, width*height*3)}
}

// Next reads one frame. A trailing partial frame is reported as
// io.ErrUnexpectedEOF.
func (s *rawStream) Next() (image.Image, error) {
	if _, err := io.ReadFull(s.r, s.buf); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for i, j := 0, 0; i < len(s.buf); i, j = i+3, j+4 {
		img.Pix[j] = s.buf[i]
		img.Pix[j+1] = s.buf[i+1]
		img.Pix[j+2] = s.buf[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}
