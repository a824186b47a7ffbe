package video

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// probeResult is the subset of ffprobe's JSON output needed to size frames.
type probeResult struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// parseProbe returns the dimensions of the first video stream.
func parseProbe(data []byte) (width, height int, err error) {
	var result probeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return 0, 0, fmt.Errorf("ffprobe parse: %w", err)
	}
	for _, stream := range result.Streams {
		if strings.EqualFold(stream.CodecType, "video") && stream.Width > 0 && stream.Height > 0 {
			return stream.Width, stream.Height, nil
		}
	}
	return 0, 0, ErrNoVideoStream
}

// FFmpegReader decodes videos by piping rgb24 frames out of ffmpeg.
type FFmpegReader struct{}

// NewFFmpegReader creates a reader backed by the ffmpeg and ffprobe binaries on PATH.
func NewFFmpegReader() *FFmpegReader {
	return &FFmpegReader{}
}

// Open probes path for its frame size and starts a decoder process.
func (r *FFmpegReader) Open(ctx context.Context, path string) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probe, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	width, height, err := parseProbe([]byte(probe))
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	cmd := ffmpeg.Input(path).
		Output("pipe:", ffmpeg.KwArgs{"format": "rawvideo", "pix_fmt": "rgb24", "loglevel": "error"}).
		Compile()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	s := &ffmpegStream{
		raw:    newRawStream(bufio.NewReaderSize(stdout, 1<<20), width, height),
		cmd:    cmd,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	go s.watch(ctx)
	return s, nil
}

type ffmpegStream struct {
	raw    *rawStream
	cmd    *exec.Cmd
	stderr *bytes.Buffer

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// watch kills the decoder when ctx is cancelled before Close.
func (s *ffmpegStream) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		_ = s.cmd.Process.Kill()
	case <-s.done:
	}
}

func (s *ffmpegStream) Next() (image.Image, error) {
	img, err := s.raw.Next()
	if err == nil {
		return img, nil
	}
	if errors.Is(err, io.EOF) {
		// A clean end of output still needs ffmpeg's exit status.
		if werr := s.finish(false); werr != nil {
			return nil, werr
		}
		return nil, io.EOF
	}
	return nil, fmt.Errorf("read frame: %w", err)
}

func (s *ffmpegStream) Close() error {
	return s.finish(true)
}

func (s *ffmpegStream) finish(kill bool) error {
	s.closeOnce.Do(func() {
		close(s.done)
		if kill {
			// Unblock ffmpeg if the caller stopped reading early.
			_ = s.cmd.Process.Kill()
		}
		err := s.cmd.Wait()
		if err != nil && !s.killed() {
			s.closeErr = fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(s.stderr.String()))
		}
	})
	return s.closeErr
}

func (s *ffmpegStream) killed() bool {
	state := s.cmd.ProcessState
	return state != nil && !state.Exited()
}
