// Package capture models the camera: a device that is opened for the
// lifetime of a scan and yields JPEG still frames.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrClosed is returned when capturing from a released stream.
var ErrClosed = errors.New("capture: stream closed")

// ErrNotJPEG is returned when a frame does not start with the JPEG SOI marker.
var ErrNotJPEG = errors.New("capture: frame is not a JPEG image")

var jpegSOI = []byte{0xFF, 0xD8}

// Device is a frame source that must be opened before use.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open device. Close releases it and is safe to call twice.
type Stream interface {
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// WithStream opens dev, runs fn and always releases the stream, including
// when fn fails or panics.
func WithStream(ctx context.Context, dev Device, fn func(Stream) error) (err error) {
	stream, err := dev.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open capture device: %w", err)
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to release capture device: %w", closeErr))
		}
	}()
	return fn(stream)
}

// IsJPEG reports whether frame starts with the JPEG SOI marker.
func IsJPEG(frame []byte) bool {
	return bytes.HasPrefix(frame, jpegSOI)
}

// FileDevice serves a still frame stored on disk.
type FileDevice struct {
	Path string
}

func (d FileDevice) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, err
	}
	return &fileStream{f: f}, nil
}

type fileStream struct {
	mu     sync.Mutex
	f      *os.File
	closed bool
}

func (s *fileStream) Capture(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := s.f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("failed to rewind frame: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(s.f); err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	frame := buf.Bytes()
	if !IsJPEG(frame) {
		return nil, ErrNotJPEG
	}
	return frame, nil
}

func (s *fileStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.f.Close()
}
