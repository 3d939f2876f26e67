package vtk

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// VariantTrackPoint is the oneof variant name of a position report.
const VariantTrackPoint = fieldTrackPoint

// TrackPoint is a single raw position/orientation sample as stored on the
// wire. All fixed-point fields keep their scale; see Project.
type TrackPoint struct {
	Seconds      uint32
	Centiseconds uint32
	LatitudeE7   int32
	LongitudeE7  int32
	SogKnotsE1   uint32
	Cog          float32
	Q1E3         int32
	Q2E3         int32
	Q3E3         int32
	Q4E3         int32
}

// Record is one decoded log entry. Variant names the populated oneof member
// and is empty when none is set. Unknown lists field numbers present on the
// wire that the schema does not define, in wire order.
type Record struct {
	Variant    string
	TrackPoint *TrackPoint
	Unknown    []protowire.Number
}

// IsTrackPoint reports whether the record carries a position report.
func (r *Record) IsTrackPoint() bool {
	return r.Variant == VariantTrackPoint && r.TrackPoint != nil
}

// Describe returns a short human-readable identity for logging skipped
// records.
func (r *Record) Describe() string {
	var parts []string
	if r.Variant != "" {
		parts = append(parts, "variant="+r.Variant)
	}
	if len(r.Unknown) > 0 {
		nums := make([]string, len(r.Unknown))
		for i, n := range r.Unknown {
			nums[i] = fmt.Sprint(int32(n))
		}
		parts = append(parts, "unknown fields ["+strings.Join(nums, " ")+"]")
	}
	if len(parts) == 0 {
		return "empty record"
	}
	return strings.Join(parts, ", ")
}

// DecodeError reports a payload that is not a well-formed Record.
type DecodeError struct {
	Frame int
	Size  int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode record in frame %d (%d bytes): %v", e.Frame, e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// DecodeRecord parses one frame payload against the VTK schema. Malformed
// tag or length bytes yield a *DecodeError; Frame is left at -1 for the
// caller to fill in.
func DecodeRecord(payload []byte) (*Record, error) {
	s := RecordSchema()
	msg := dynamicpb.NewMessage(s.Record)
	if err := proto.Unmarshal(payload, msg); err != nil {
		return nil, &DecodeError{Frame: -1, Size: len(payload), Err: err}
	}

	rec := &Record{Unknown: unknownFields(msg.GetUnknown())}

	oneof := s.Record.Oneofs().ByName(oneofRecord)
	fd := msg.WhichOneof(oneof)
	if fd == nil {
		return rec, nil
	}
	rec.Variant = string(fd.Name())
	if fd.Name() == fieldTrackPoint {
		tp := msg.Get(fd).Message()
		rec.TrackPoint = trackPointFromMessage(s, tp)
		rec.Unknown = append(rec.Unknown, unknownFields(tp.GetUnknown())...)
	}
	return rec, nil
}

// EncodeRecord serialises rec deterministically. Unknown field numbers are
// emitted as empty length-delimited fields so that encoded "foreign" records
// round-trip through DecodeRecord with the same identity.
func EncodeRecord(rec *Record) ([]byte, error) {
	s := RecordSchema()
	msg := dynamicpb.NewMessage(s.Record)

	if rec.TrackPoint != nil {
		fd := s.Record.Fields().ByName(fieldTrackPoint)
		msg.Set(fd, protoreflect.ValueOfMessage(trackPointMessage(s, rec.TrackPoint)))
	}

	var raw []byte
	for _, num := range rec.Unknown {
		if s.Record.Fields().ByNumber(num) != nil {
			return nil, fmt.Errorf("field %d is defined by the record schema", num)
		}
		if !num.IsValid() {
			return nil, fmt.Errorf("invalid field number %d", num)
		}
		raw = protowire.AppendTag(raw, num, protowire.BytesType)
		raw = protowire.AppendBytes(raw, nil)
	}
	if len(raw) > 0 {
		msg.SetUnknown(raw)
	}

	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

// unknownFields lists the field numbers in raw wire bytes that the decoder
// kept as unknown.
func unknownFields(raw protoreflect.RawFields) []protowire.Number {
	var nums []protowire.Number
	for len(raw) > 0 {
		num, typ, n := protowire.ConsumeTag(raw)
		if n < 0 {
			break
		}
		m := protowire.ConsumeFieldValue(num, typ, raw[n:])
		if m < 0 {
			break
		}
		nums = append(nums, num)
		raw = raw[n+m:]
	}
	return nums
}

func trackPointFromMessage(s *Schema, m protoreflect.Message) *TrackPoint {
	u32 := func(name protoreflect.Name) uint32 {
		return uint32(m.Get(s.trackPointField(name)).Uint())
	}
	i32 := func(name protoreflect.Name) int32 {
		return int32(m.Get(s.trackPointField(name)).Int())
	}
	return &TrackPoint{
		Seconds:      u32(fieldSeconds),
		Centiseconds: u32(fieldCentiseconds),
		LatitudeE7:   i32(fieldLatitudeE7),
		LongitudeE7:  i32(fieldLongitudeE7),
		SogKnotsE1:   u32(fieldSogKnotsE1),
		Cog:          float32(m.Get(s.trackPointField(fieldCog)).Float()),
		Q1E3:         i32(fieldQ1E3),
		Q2E3:         i32(fieldQ2E3),
		Q3E3:         i32(fieldQ3E3),
		Q4E3:         i32(fieldQ4E3),
	}
}

func trackPointMessage(s *Schema, tp *TrackPoint) protoreflect.Message {
	m := dynamicpb.NewMessage(s.TrackPoint)
	setU32 := func(name protoreflect.Name, v uint32) {
		m.Set(s.trackPointField(name), protoreflect.ValueOfUint32(v))
	}
	setI32 := func(name protoreflect.Name, v int32) {
		m.Set(s.trackPointField(name), protoreflect.ValueOfInt32(v))
	}
	setU32(fieldSeconds, tp.Seconds)
	setU32(fieldCentiseconds, tp.Centiseconds)
	setI32(fieldLatitudeE7, tp.LatitudeE7)
	setI32(fieldLongitudeE7, tp.LongitudeE7)
	setU32(fieldSogKnotsE1, tp.SogKnotsE1)
	m.Set(s.trackPointField(fieldCog), protoreflect.ValueOfFloat32(tp.Cog))
	setI32(fieldQ1E3, tp.Q1E3)
	setI32(fieldQ2E3, tp.Q2E3)
	setI32(fieldQ3E3, tp.Q3E3)
	setI32(fieldQ4E3, tp.Q4E3)
	return m
}
