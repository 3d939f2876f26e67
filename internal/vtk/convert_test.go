package vtk

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/velocitek/vtk-protocol/internal/fsutil"
	"github.com/velocitek/vtk-protocol/internal/testutil"
)

func mustEncode(t *testing.T, rec *Record) []byte {
	t.Helper()
	data, err := EncodeRecord(rec)
	require.NoError(t, err)
	return data
}

func trackPointPayload(t *testing.T, tp *TrackPoint) []byte {
	return mustEncode(t, &Record{Variant: VariantTrackPoint, TrackPoint: tp})
}

func foreignPayload(t *testing.T) []byte {
	return mustEncode(t, &Record{Unknown: []protowire.Number{2}})
}

func TestConvert_EndToEndExample(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	stream := testutil.Frames(trackPointPayload(t, sampleTrackPoint()), foreignPayload(t))
	res, err := Convert(bytes.NewReader(stream))
	require.NoError(t, err)

	require.Len(t, res.Points, 1)
	p := res.Points[0]
	assert.Equal(t, 40.7128, p.Latitude)
	assert.Equal(t, -74.006, p.Longitude)
	assert.Equal(t, 5.5, p.SOG)
	assert.Equal(t, 180.0, p.COG)
	assert.Equal(t, 0.0, p.MagHeading)
	assert.Equal(t, 0.0, p.Heel)
	assert.Equal(t, 0.0, p.Pitch)

	assert.Equal(t, 2, res.Frames)
	assert.Equal(t, 1, res.Skipped)
	assert.False(t, res.Truncated)
	assert.Equal(t, int64(len(stream)), res.BytesRead)

	assert.Equal(t, 1, logs.Count("Not a position report record"))
	assert.Len(t, logs.Lines(), 1)
}

func TestConvert_CleanEOFHasNoDiagnostics(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	var payloads [][]byte
	for i := 0; i < 5; i++ {
		tp := sampleTrackPoint()
		tp.Seconds += uint32(i)
		payloads = append(payloads, trackPointPayload(t, tp))
	}
	res, err := Convert(bytes.NewReader(testutil.Frames(payloads...)))
	require.NoError(t, err)

	assert.Len(t, res.Points, 5)
	assert.Empty(t, logs.Lines())
	for i := 1; i < len(res.Points); i++ {
		assert.True(t, res.Points[i].Time.After(res.Points[i-1].Time), "points must keep stream order")
	}
}

func TestConvert_ShortReadKeepsEarlierPoints(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	stream := testutil.Frames(
		trackPointPayload(t, sampleTrackPoint()),
		trackPointPayload(t, sampleTrackPoint()),
	)
	complete := len(stream)
	stream = append(stream, 0x40, 0x00, 0x0a, 0x02)

	res, err := Convert(bytes.NewReader(stream))
	require.NoError(t, err)

	assert.Len(t, res.Points, 2)
	assert.True(t, res.Truncated)
	assert.Equal(t, int64(complete), res.BytesRead)
	assert.Equal(t, 1, logs.Count("Error - Not enough data"))
}

func TestConvert_EmptyInput(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	res, err := Convert(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, res.Points)
	assert.Zero(t, res.Frames)
	assert.Empty(t, logs.Lines())

	_, ok := res.AvgBytesPerMessage(0)
	assert.False(t, ok)
}

func TestConvert_EmptyFramesAreSkipped(t *testing.T) {
	logs := testutil.CaptureLogs(t)

	res, err := Convert(bytes.NewReader(testutil.Frames(nil, []byte{0x0a, 0x00})))
	require.NoError(t, err)

	// The empty payload has no variant; the empty trackpoint is a point at
	// the epoch.
	require.Len(t, res.Points, 1)
	assert.Equal(t, int64(0), res.Points[0].Time.Unix())
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, logs.Count("empty record"))
}

func TestConvert_DecodeErrorAbortsRun(t *testing.T) {
	testutil.CaptureLogs(t)

	stream := testutil.Frames(
		trackPointPayload(t, sampleTrackPoint()),
		[]byte{0x0a, 0x05, 0x08},
		trackPointPayload(t, sampleTrackPoint()),
	)
	res, err := Convert(bytes.NewReader(stream))
	require.Error(t, err)
	assert.Nil(t, res)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Frame)
	assert.Contains(t, err.Error(), "frame 1")
}

func TestConvertFile_ClosesInput(t *testing.T) {
	testutil.CaptureLogs(t)

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"clean", testutil.Frames(trackPointPayload(t, sampleTrackPoint())), false},
		{"truncated", []byte{0x09, 0x00, 0x01}, false},
		{"malformed", testutil.Frames([]byte{0xff}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := fsutil.NewMemoryFileSystem()
			mem.WriteFile("track.vtk", tt.data)

			_, err := ConvertFile(mem, "track.vtk")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Zero(t, mem.OpenHandles(), "input handle left open")
		})
	}
}

func TestConvertFile_Missing(t *testing.T) {
	_, err := ConvertFile(fsutil.NewMemoryFileSystem(), "nope.vtk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.vtk")
}

func TestConvertFile_OnDisk(t *testing.T) {
	testutil.CaptureLogs(t)

	path := testutil.WriteTempFile(t, "disk.vtk", testutil.Frames(trackPointPayload(t, sampleTrackPoint())))
	res, err := ConvertFile(fsutil.OSFileSystem{}, path)
	require.NoError(t, err)
	assert.Len(t, res.Points, 1)
}

func TestAvgBytesPerMessage(t *testing.T) {
	res := &Result{Points: make([]Point, 4)}
	avg, ok := res.AvgBytesPerMessage(90)
	require.True(t, ok)
	assert.Equal(t, 22.5, avg)
}
