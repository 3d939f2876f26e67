package vtk

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Record schema field names, as spelled in proto/vtk.proto.
const (
	fieldTrackPoint   = "trackpoint"
	oneofRecord       = "record"
	fieldSeconds      = "seconds"
	fieldCentiseconds = "centiseconds"
	fieldLatitudeE7   = "latitudeE7"
	fieldLongitudeE7  = "longitudeE7"
	fieldSogKnotsE1   = "sog_knotsE1"
	fieldCog          = "cog"
	fieldQ1E3         = "q1E3"
	fieldQ2E3         = "q2E3"
	fieldQ3E3         = "q3E3"
	fieldQ4E3         = "q4E3"
)

// Schema holds the resolved message descriptors of the VTK record schema.
type Schema struct {
	Record     protoreflect.MessageDescriptor
	TrackPoint protoreflect.MessageDescriptor
}

var schema = mustBuildSchema()

// RecordSchema returns the resolved VTK record schema.
func RecordSchema() *Schema {
	return schema
}

// schemaFile mirrors proto/vtk.proto. The field numbers and types are a
// fixed external contract shared with the loggers that write the files.
func schemaFile() *descriptorpb.FileDescriptorProto {
	field := func(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
		return &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(name),
			Number: proto.Int32(num),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:   typ.Enum(),
		}
	}

	trackpoint := field(fieldTrackPoint, 1, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	trackpoint.TypeName = proto.String(".vtk.TrackPoint")
	trackpoint.OneofIndex = proto.Int32(0)

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("vtk.proto"),
		Package: proto.String("vtk"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("TrackPoint"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field(fieldSeconds, 1, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
					field(fieldCentiseconds, 2, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
					field(fieldLatitudeE7, 3, descriptorpb.FieldDescriptorProto_TYPE_SINT32),
					field(fieldLongitudeE7, 4, descriptorpb.FieldDescriptorProto_TYPE_SINT32),
					field(fieldSogKnotsE1, 5, descriptorpb.FieldDescriptorProto_TYPE_UINT32),
					field(fieldCog, 6, descriptorpb.FieldDescriptorProto_TYPE_FLOAT),
					field(fieldQ1E3, 7, descriptorpb.FieldDescriptorProto_TYPE_SINT32),
					field(fieldQ2E3, 8, descriptorpb.FieldDescriptorProto_TYPE_SINT32),
					field(fieldQ3E3, 9, descriptorpb.FieldDescriptorProto_TYPE_SINT32),
					field(fieldQ4E3, 10, descriptorpb.FieldDescriptorProto_TYPE_SINT32),
				},
			},
			{
				Name:      proto.String("Record"),
				Field:     []*descriptorpb.FieldDescriptorProto{trackpoint},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{{Name: proto.String(oneofRecord)}},
			},
		},
	}
}

func buildSchema() (*Schema, error) {
	fd, err := protodesc.NewFile(schemaFile(), new(protoregistry.Files))
	if err != nil {
		return nil, fmt.Errorf("failed to build vtk schema: %w", err)
	}
	msgs := fd.Messages()
	s := &Schema{
		Record:     msgs.ByName("Record"),
		TrackPoint: msgs.ByName("TrackPoint"),
	}
	if s.Record == nil || s.TrackPoint == nil {
		return nil, fmt.Errorf("vtk schema is missing Record or TrackPoint")
	}
	return s, nil
}

func mustBuildSchema() *Schema {
	s, err := buildSchema()
	if err != nil {
		panic(err)
	}
	return s
}

// trackPointField looks up a TrackPoint field by name. The names are fixed
// at compile time, so a miss is a programming error.
func (s *Schema) trackPointField(name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := s.TrackPoint.Fields().ByName(name)
	if fd == nil {
		panic(fmt.Sprintf("vtk: TrackPoint has no field %q", name))
	}
	return fd
}
