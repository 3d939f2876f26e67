package vtk

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func sampleTrackPoint() *TrackPoint {
	return &TrackPoint{
		Seconds:      1700000000,
		Centiseconds: 50,
		LatitudeE7:   407128000,
		LongitudeE7:  -740060000,
		SogKnotsE1:   55,
		Cog:          180.0,
		Q1E3:         1000,
	}
}

// handTrackPoint builds the wire bytes of a Record{trackpoint} without going
// through the descriptor, so decode is checked against an independent
// encoding of the schema. Zero scalars are omitted as proto3 does.
func handTrackPoint(tp *TrackPoint) []byte {
	var inner []byte
	varint := func(num protowire.Number, v uint64) {
		if v == 0 {
			return
		}
		inner = protowire.AppendTag(inner, num, protowire.VarintType)
		inner = protowire.AppendVarint(inner, v)
	}
	zigzag := func(num protowire.Number, v int32) {
		varint(num, protowire.EncodeZigZag(int64(v)))
	}

	varint(1, uint64(tp.Seconds))
	varint(2, uint64(tp.Centiseconds))
	zigzag(3, tp.LatitudeE7)
	zigzag(4, tp.LongitudeE7)
	varint(5, uint64(tp.SogKnotsE1))
	if bits := math.Float32bits(tp.Cog); bits != 0 {
		inner = protowire.AppendTag(inner, 6, protowire.Fixed32Type)
		inner = protowire.AppendFixed32(inner, bits)
	}
	zigzag(7, tp.Q1E3)
	zigzag(8, tp.Q2E3)
	zigzag(9, tp.Q3E3)
	zigzag(10, tp.Q4E3)

	var out []byte
	out = protowire.AppendTag(out, 1, protowire.BytesType)
	out = protowire.AppendBytes(out, inner)
	return out
}

func TestDecodeRecord_TrackPoint(t *testing.T) {
	t.Parallel()

	want := sampleTrackPoint()
	want.Q2E3, want.Q3E3, want.Q4E3 = -12, 7, -707

	rec, err := DecodeRecord(handTrackPoint(want))
	require.NoError(t, err)
	assert.True(t, rec.IsTrackPoint())
	assert.Equal(t, VariantTrackPoint, rec.Variant)
	assert.Empty(t, rec.Unknown)
	if diff := cmp.Diff(want, rec.TrackPoint); diff != "" {
		t.Errorf("TrackPoint mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  *Record
	}{
		{"sample", &Record{Variant: VariantTrackPoint, TrackPoint: sampleTrackPoint()}},
		{"all zero", &Record{Variant: VariantTrackPoint, TrackPoint: &TrackPoint{}}},
		{"extremes", &Record{Variant: VariantTrackPoint, TrackPoint: &TrackPoint{
			Seconds: 1<<32 - 1, Centiseconds: 99,
			LatitudeE7: -900000000, LongitudeE7: 1800000000,
			SogKnotsE1: 1<<32 - 1, Cog: -0.5,
			Q1E3: -1000, Q2E3: 1000, Q3E3: -1, Q4E3: 1,
		}}},
		{"foreign record", &Record{Unknown: []protowire.Number{2}}},
		{"empty", &Record{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeRecord(tt.rec)
			require.NoError(t, err)

			got, err := DecodeRecord(data)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.rec, got); diff != "" {
				t.Errorf("record mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeRecord_Deterministic(t *testing.T) {
	t.Parallel()

	rec := &Record{Variant: VariantTrackPoint, TrackPoint: sampleTrackPoint()}
	a, err := EncodeRecord(rec)
	require.NoError(t, err)
	b, err := EncodeRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, handTrackPoint(rec.TrackPoint), a, "descriptor encoding should match the hand-built wire bytes")
}

func TestEncodeRecord_RejectsSchemaFieldAsUnknown(t *testing.T) {
	t.Parallel()

	_, err := EncodeRecord(&Record{Unknown: []protowire.Number{1}})
	assert.Error(t, err)
}

func TestDecodeRecord_EmptyPayload(t *testing.T) {
	t.Parallel()

	rec, err := DecodeRecord([]byte{})
	require.NoError(t, err)
	assert.False(t, rec.IsTrackPoint())
	assert.Equal(t, "empty record", rec.Describe())
}

func TestDecodeRecord_EmptyTrackPoint(t *testing.T) {
	t.Parallel()

	// Present but empty submessage: every field at its zero value.
	rec, err := DecodeRecord([]byte{0x0a, 0x00})
	require.NoError(t, err)
	require.True(t, rec.IsTrackPoint())
	assert.Equal(t, TrackPoint{}, *rec.TrackPoint)
}

func TestDecodeRecord_UnknownVariant(t *testing.T) {
	t.Parallel()

	var payload []byte
	payload = protowire.AppendTag(payload, 2, protowire.BytesType)
	payload = protowire.AppendBytes(payload, []byte("battery"))
	payload = protowire.AppendTag(payload, 15, protowire.VarintType)
	payload = protowire.AppendVarint(payload, 42)

	rec, err := DecodeRecord(payload)
	require.NoError(t, err)
	assert.False(t, rec.IsTrackPoint())
	assert.Equal(t, []protowire.Number{2, 15}, rec.Unknown)
	assert.Equal(t, "unknown fields [2 15]", rec.Describe())
}

func TestDecodeRecord_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload []byte
	}{
		{"truncated varint", []byte{0x08, 0xff}},
		{"length past end", []byte{0x0a, 0x05, 0x08}},
		{"field number zero", []byte{0x00, 0x01}},
		{"bad nested trackpoint", []byte{0x0a, 0x02, 0x08, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord(tt.payload)
			require.Error(t, err)
			var de *DecodeError
			require.True(t, errors.As(err, &de), "error %T is not *DecodeError", err)
			assert.Equal(t, len(tt.payload), de.Size)
			assert.Error(t, errors.Unwrap(err))
		})
	}
}

func TestRecordDescribe(t *testing.T) {
	t.Parallel()

	rec := &Record{Variant: "status", Unknown: []protowire.Number{9}}
	assert.Equal(t, "variant=status, unknown fields [9]", rec.Describe())
}

func TestRecordSchema(t *testing.T) {
	t.Parallel()

	s := RecordSchema()
	assert.Equal(t, "vtk.Record", string(s.Record.FullName()))
	assert.Equal(t, 10, s.TrackPoint.Fields().Len())
	oneof := s.Record.Oneofs().ByName(oneofRecord)
	require.NotNil(t, oneof)
	assert.Equal(t, 1, oneof.Fields().Len())
}
