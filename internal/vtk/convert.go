package vtk

import (
	"errors"
	"fmt"
	"io"

	"github.com/velocitek/vtk-protocol/internal/fsutil"
	"github.com/velocitek/vtk-protocol/internal/monitoring"
)

// Result is the outcome of one conversion pass.
type Result struct {
	Points    []Point
	Frames    int   // complete frames read
	Skipped   int   // records that were not position reports
	Truncated bool  // the stream ended inside a frame
	BytesRead int64 // bytes consumed by complete frames
}

// AvgBytesPerMessage returns fileSize divided by the number of decoded
// points. The second value is false when no points were decoded.
func (r *Result) AvgBytesPerMessage(fileSize int64) (float64, bool) {
	if len(r.Points) == 0 {
		return 0, false
	}
	return float64(fileSize) / float64(len(r.Points)), true
}

// Convert reads every frame from r and projects the position reports it
// carries, in stream order. A stream that ends inside a frame is logged and
// ends the pass with the points read so far. Records of any other kind are
// logged and skipped. A malformed record aborts the pass with a
// *DecodeError and no points.
func Convert(r io.Reader) (*Result, error) {
	fr := NewFrameReader(r)
	res := &Result{}

	for {
		payload, err := fr.Next()
		if err == io.EOF {
			break
		}
		if errors.Is(err, ErrInsufficientData) {
			monitoring.Logf("Error - Not enough data: %v", err)
			res.Truncated = true
			break
		}
		if err != nil {
			return nil, err
		}

		rec, err := DecodeRecord(payload)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				de.Frame = fr.Frames() - 1
			}
			return nil, err
		}

		if !rec.IsTrackPoint() {
			monitoring.Logf("Not a position report record: %s", rec.Describe())
			res.Skipped++
			continue
		}
		res.Points = append(res.Points, Project(*rec.TrackPoint))
		monitoring.Debugf("frame %d: trackpoint at %d.%02d", fr.Frames()-1, rec.TrackPoint.Seconds, rec.TrackPoint.Centiseconds)
	}

	res.Frames = fr.Frames()
	res.BytesRead = fr.Offset()
	return res, nil
}

// ConvertFile runs Convert over the file at path. The file is closed on
// every return path.
func ConvertFile(fsys fsutil.FileSystem, path string) (res *Result, err error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	res, err = Convert(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
