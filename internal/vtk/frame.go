package vtk

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// prefixSize is the width of the little-endian length prefix in front of
// every record.
const prefixSize = 2

// MaxFrameSize is the largest payload a single frame can carry.
const MaxFrameSize = 1<<16 - 1

var (
	// ErrInsufficientData reports a stream that ends inside a frame.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrFrameTooLarge reports a payload that does not fit the length prefix.
	ErrFrameTooLarge = errors.New("frame too large")
)

// ShortFrameError describes a frame cut off by the end of the stream.
// Offset is the stream position of the frame's length prefix.
type ShortFrameError struct {
	Offset int64
	Want   int
	Got    int
}

func (e *ShortFrameError) Error() string {
	return fmt.Sprintf("short frame at offset %d: want %d bytes, got %d", e.Offset, e.Want, e.Got)
}

// Unwrap lets callers match with errors.Is(err, ErrInsufficientData).
func (e *ShortFrameError) Unwrap() error {
	return ErrInsufficientData
}

// FrameReader splits a VTK byte stream into record payloads.
type FrameReader struct {
	r      *bufio.Reader
	offset int64
	frames int
}

// NewFrameReader wraps r. The reader is buffered internally.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next returns the next payload. It returns io.EOF when the stream ends
// cleanly on a frame boundary and a *ShortFrameError when it ends inside a
// prefix or payload. A zero-length frame yields an empty, non-nil slice.
func (fr *FrameReader) Next() ([]byte, error) {
	var prefix [prefixSize]byte
	n, err := io.ReadFull(fr.r, prefix[:])
	switch {
	case err == io.EOF:
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, &ShortFrameError{Offset: fr.offset, Want: prefixSize, Got: n}
	case err != nil:
		return nil, fmt.Errorf("failed to read frame length: %w", err)
	}

	size := int(binary.LittleEndian.Uint16(prefix[:]))
	payload := make([]byte, size)
	got, err := io.ReadFull(fr.r, payload)
	if err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &ShortFrameError{Offset: fr.offset, Want: size, Got: got}
		}
		return nil, fmt.Errorf("failed to read frame data: %w", err)
	}

	fr.offset += int64(prefixSize + size)
	fr.frames++
	return payload, nil
}

// Offset returns the number of bytes consumed by complete frames.
func (fr *FrameReader) Offset() int64 {
	return fr.offset
}

// Frames returns the number of complete frames read so far.
func (fr *FrameReader) Frames() int {
	return fr.frames
}

// FrameWriter writes length-prefixed payloads.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter returns a writer that frames payloads onto w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes payload preceded by its uint16 little-endian length.
func (fw *FrameWriter) WriteFrame(payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	var prefix [prefixSize]byte
	binary.LittleEndian.PutUint16(prefix[:], uint16(len(payload)))
	if _, err := fw.w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write frame length: %w", err)
	}
	if _, err := fw.w.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame data: %w", err)
	}
	return nil
}
