package testutil

import (
	"bytes"
	"os"
	"testing"

	"github.com/velocitek/vtk-protocol/internal/monitoring"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, os.ErrNotExist)
}

func TestFrames(t *testing.T) {
	t.Parallel()

	got := Frames([]byte{0xAA}, nil, []byte{1, 2, 3})
	want := []byte{
		0x01, 0x00, 0xAA,
		0x00, 0x00,
		0x03, 0x00, 1, 2, 3,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Frames() = % x, want % x", got, want)
	}

	if got := Frames(); len(got) != 0 {
		t.Errorf("Frames() with no payloads = % x, want empty", got)
	}
}

func TestFramesPanicsOnOversizedPayload(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for a 65536-byte payload")
		}
	}()
	Frames(make([]byte, 0x10000))
}

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	path := WriteTempFile(t, "sample.vtk", []byte{0x00, 0x00})
	data, err := os.ReadFile(path)
	AssertNoError(t, err)
	if len(data) != 2 {
		t.Errorf("file has %d bytes, want 2", len(data))
	}
}

func TestCaptureLogs(t *testing.T) {
	c := CaptureLogs(t)

	monitoring.Logf("Not a position report record: %s", "empty record")
	monitoring.Logf("Error - Not enough data")

	lines := c.Lines()
	if len(lines) != 2 {
		t.Fatalf("captured %d lines, want 2: %q", len(lines), lines)
	}
	if got := c.Count("position report"); got != 1 {
		t.Errorf("Count(position report) = %d, want 1", got)
	}
	if got := c.Count("missing"); got != 0 {
		t.Errorf("Count(missing) = %d, want 0", got)
	}
}
