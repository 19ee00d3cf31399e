package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

// DefaultDynamicFieldName is the name Milvus gives the hidden JSON field that
// stores keys not declared in the schema.
const DefaultDynamicFieldName = "$meta"

// FieldDescriptor describes one field of a collection schema.
type FieldDescriptor struct {
	Name         string
	FieldID      int64
	DataType     schemapb.DataType
	IsPrimaryKey bool
	IsVector     bool

	// ElementType is the element type of Array fields.
	ElementType schemapb.DataType

	// Dim is the dimension of dense vector fields, 0 when not declared.
	Dim int64

	// MaxLength bounds VarChar values in bytes, 0 when not declared.
	MaxLength int64

	AutoID         bool
	Nullable       bool
	HasDefault     bool
	IsDynamic      bool
	IsPartitionKey bool

	// IsFunctionOutput marks fields the server computes from other fields,
	// such as the sparse output of a BM25 function. They are never written
	// by clients and never returned.
	IsFunctionOutput bool
}

// CollectionSchema is a read-only snapshot of a described collection.
// Field order is the wire order.
type CollectionSchema struct {
	name          string
	fields        []FieldDescriptor
	byName        map[string]int
	primary       int
	vectors       []string
	enableDynamic bool
	dynamicField  string
}

// ReadSchema ──────────────────────────────────────────────────────────────
// ReadSchema
// ──────────────────────────────────────────────────────────────
//
// ReadSchema builds a CollectionSchema from a describe-collection response.
//
// The collection must declare exactly one primary key field, otherwise an
// ErrSchema is returned. A collection without vector fields is valid; its
// VectorFieldNames is empty.
//
// Example:
//
//	resp, _ := api.DescribeCollection(ctx, &milvuspb.DescribeCollectionRequest{CollectionName: "docs"})
//	schema, err := milvus.ReadSchema(resp)
//	if err != nil {
//	    return err
//	}
//	log.Printf("primary=%s vectors=%v", schema.PrimaryFieldName(), schema.VectorFieldNames())
func ReadSchema(resp *milvuspb.DescribeCollectionResponse) (*CollectionSchema, error) {
	if resp == nil || resp.GetSchema() == nil {
		return nil, schemaErrorf("describe collection response has no schema")
	}
	wire := resp.GetSchema()

	s := &CollectionSchema{
		name:          wire.GetName(),
		fields:        make([]FieldDescriptor, 0, len(wire.GetFields())),
		byName:        make(map[string]int, len(wire.GetFields())),
		primary:       -1,
		vectors:       []string{},
		enableDynamic: wire.GetEnableDynamicField(),
	}

	primaries := 0
	for _, f := range wire.GetFields() {
		if f == nil {
			return nil, schemaErrorf("collection '%s' has a nil field", s.name)
		}
		if _, dup := s.byName[f.GetName()]; dup {
			return nil, schemaErrorf("collection '%s' declares field '%s' twice", s.name, f.GetName())
		}

		fd := describeField(f)
		s.byName[fd.Name] = len(s.fields)
		if fd.IsPrimaryKey {
			primaries++
			s.primary = len(s.fields)
		}
		if fd.IsVector {
			s.vectors = append(s.vectors, fd.Name)
		}
		if fd.IsDynamic {
			s.dynamicField = fd.Name
		}
		s.fields = append(s.fields, fd)
	}

	switch {
	case primaries == 0:
		return nil, schemaErrorf("collection '%s' has no primary key field", s.name)
	case primaries > 1:
		return nil, schemaErrorf("collection '%s' has %d primary key fields", s.name, primaries)
	}

	if s.enableDynamic && s.dynamicField == "" {
		s.dynamicField = DefaultDynamicFieldName
	}

	return s, nil
}

func describeField(f *schemapb.FieldSchema) FieldDescriptor {
	return FieldDescriptor{
		Name:           f.GetName(),
		FieldID:        f.GetFieldID(),
		DataType:       f.GetDataType(),
		IsPrimaryKey:   f.GetIsPrimaryKey(),
		IsVector:       IsVectorType(f.GetDataType()),
		ElementType:    f.GetElementType(),
		Dim:            typeParamInt(f.GetTypeParams(), "dim"),
		MaxLength:      typeParamInt(f.GetTypeParams(), "max_length"),
		AutoID:         f.GetAutoID(),
		Nullable:       f.GetNullable(),
		HasDefault:     f.GetDefaultValue() != nil,
		IsDynamic:      f.GetIsDynamic(),
		IsPartitionKey: f.GetIsPartitionKey(),

		IsFunctionOutput: f.GetIsFunctionOutput(),
	}
}

func typeParamInt(params []*commonpb.KeyValuePair, key string) int64 {
	for _, p := range params {
		if p.GetKey() != key {
			continue
		}
		n, err := strconv.ParseInt(p.GetValue(), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// IsVectorType reports whether a field of this data type can be searched.
func IsVectorType(dt schemapb.DataType) bool {
	switch dt {
	case schemapb.DataType_FloatVector,
		schemapb.DataType_BinaryVector,
		schemapb.DataType_Float16Vector,
		schemapb.DataType_BFloat16Vector,
		schemapb.DataType_SparseFloatVector:
		return true
	}
	return false
}

// Name returns the collection name.
func (s *CollectionSchema) Name() string { return s.name }

// Fields returns the field descriptors in wire order. The slice is a copy.
func (s *CollectionSchema) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field looks up a field by name.
func (s *CollectionSchema) Field(name string) (FieldDescriptor, bool) {
	i, ok := s.byName[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return s.fields[i], true
}

// PrimaryField returns the primary key field.
func (s *CollectionSchema) PrimaryField() FieldDescriptor { return s.fields[s.primary] }

// PrimaryFieldName returns the name of the primary key field.
func (s *CollectionSchema) PrimaryFieldName() string { return s.fields[s.primary].Name }

// VectorFieldNames returns the vector fields in wire order. The slice is a
// copy and empty, not nil, for collections without vector fields.
func (s *CollectionSchema) VectorFieldNames() []string {
	out := make([]string, len(s.vectors))
	copy(out, s.vectors)
	return out
}

// AllFieldNames returns the names of every field a query can return, in wire
// order. Function output fields are left out.
func (s *CollectionSchema) AllFieldNames() []string {
	out := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		if f.IsFunctionOutput {
			continue
		}
		out = append(out, f.Name)
	}
	return out
}

// DefaultVectorFieldName returns the first vector field that accepts query
// vectors, skipping function output fields. It reports false when there is
// none.
func (s *CollectionSchema) DefaultVectorFieldName() (string, bool) {
	for _, name := range s.vectors {
		if !s.fields[s.byName[name]].IsFunctionOutput {
			return name, true
		}
	}
	return "", false
}

// EnableDynamicField reports whether rows may carry keys outside the schema.
func (s *CollectionSchema) EnableDynamicField() bool { return s.enableDynamic }

// DynamicFieldName returns the name of the dynamic JSON field, or "" when the
// collection has none.
func (s *CollectionSchema) DynamicFieldName() string { return s.dynamicField }
