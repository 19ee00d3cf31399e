package vectordb

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat
	KindDouble
	KindString
	KindJSON
	KindArray
	KindFloatVector
	KindBinaryVector
	KindFloat16Vector
	KindBFloat16Vector
	KindSparseFloatVector
)

var kindNames = [...]string{
	KindNull:              "Null",
	KindBool:              "Bool",
	KindInt8:              "Int8",
	KindInt16:             "Int16",
	KindInt32:             "Int32",
	KindInt64:             "Int64",
	KindFloat:             "Float",
	KindDouble:            "Double",
	KindString:            "String",
	KindJSON:              "JSON",
	KindArray:             "Array",
	KindFloatVector:       "FloatVector",
	KindBinaryVector:      "BinaryVector",
	KindFloat16Vector:     "Float16Vector",
	KindBFloat16Vector:    "BFloat16Vector",
	KindSparseFloatVector: "SparseFloatVector",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsVector reports whether values of this kind can be used as a query vector.
func (k Kind) IsVector() bool {
	switch k {
	case KindFloatVector, KindBinaryVector, KindFloat16Vector, KindBFloat16Vector, KindSparseFloatVector:
		return true
	}
	return false
}

// Value is a dynamically-typed field value. The set of variants is closed;
// each variant is a distinct named type in this package.
//
// Example:
//
//	row := map[string]vectordb.Value{
//	    "id":    vectordb.Int64(7),
//	    "title": vectordb.String("hello"),
//	    "emb":   vectordb.FloatVector{0.1, 0.2, 0.3},
//	}
type Value interface {
	// Kind reports the variant.
	Kind() Kind

	// Interface returns the Go-native representation of the value
	// (bool, int64, float32, string, []float32, map[string]any, ...).
	Interface() any

	isValue()
}

type (
	// Null marks an absent value of a nullable field.
	Null struct{}

	Bool   bool
	Int8   int8
	Int16  int16
	Int32  int32
	Int64  int64
	Float  float32
	Double float64
	String string

	// JSON holds an encoded JSON document.
	JSON []byte

	// FloatVector is a dense float32 embedding.
	FloatVector []float32

	// BinaryVector is a packed bit vector, 8 dimensions per byte.
	BinaryVector []byte

	// Float16Vector is an IEEE half-precision vector in little-endian byte form.
	Float16Vector []byte

	// BFloat16Vector is a brain-float vector in little-endian byte form.
	BFloat16Vector []byte
)

// Array is a homogeneous list of scalar values.
type Array struct {
	Element  Kind
	Elements []Value
}

// SparseFloatVector is a sparse embedding given by parallel index/value slices.
type SparseFloatVector struct {
	Indices []uint32
	Values  []float32
}

func (Null) Kind() Kind              { return KindNull }
func (Bool) Kind() Kind              { return KindBool }
func (Int8) Kind() Kind              { return KindInt8 }
func (Int16) Kind() Kind             { return KindInt16 }
func (Int32) Kind() Kind             { return KindInt32 }
func (Int64) Kind() Kind             { return KindInt64 }
func (Float) Kind() Kind             { return KindFloat }
func (Double) Kind() Kind            { return KindDouble }
func (String) Kind() Kind            { return KindString }
func (JSON) Kind() Kind              { return KindJSON }
func (Array) Kind() Kind             { return KindArray }
func (FloatVector) Kind() Kind       { return KindFloatVector }
func (BinaryVector) Kind() Kind      { return KindBinaryVector }
func (Float16Vector) Kind() Kind     { return KindFloat16Vector }
func (BFloat16Vector) Kind() Kind    { return KindBFloat16Vector }
func (SparseFloatVector) Kind() Kind { return KindSparseFloatVector }

func (Null) isValue()              {}
func (Bool) isValue()              {}
func (Int8) isValue()              {}
func (Int16) isValue()             {}
func (Int32) isValue()             {}
func (Int64) isValue()             {}
func (Float) isValue()             {}
func (Double) isValue()            {}
func (String) isValue()            {}
func (JSON) isValue()              {}
func (Array) isValue()             {}
func (FloatVector) isValue()       {}
func (BinaryVector) isValue()      {}
func (Float16Vector) isValue()     {}
func (BFloat16Vector) isValue()    {}
func (SparseFloatVector) isValue() {}

func (Null) Interface() any                { return nil }
func (v Bool) Interface() any              { return bool(v) }
func (v Int8) Interface() any              { return int8(v) }
func (v Int16) Interface() any             { return int16(v) }
func (v Int32) Interface() any             { return int32(v) }
func (v Int64) Interface() any             { return int64(v) }
func (v Float) Interface() any             { return float32(v) }
func (v Double) Interface() any            { return float64(v) }
func (v String) Interface() any            { return string(v) }
func (v FloatVector) Interface() any       { return []float32(v) }
func (v BinaryVector) Interface() any      { return []byte(v) }
func (v Float16Vector) Interface() any     { return []byte(v) }
func (v BFloat16Vector) Interface() any    { return []byte(v) }
func (v SparseFloatVector) Interface() any { return v.Map() }

// Interface decodes the document. Invalid JSON is returned as its raw string.
func (v JSON) Interface() any {
	var out any
	if err := json.Unmarshal(v, &out); err != nil {
		return string(v)
	}
	return out
}

func (v Array) Interface() any {
	out := make([]any, len(v.Elements))
	for i, e := range v.Elements {
		out[i] = e.Interface()
	}
	return out
}

// Map returns the sparse vector as index → value.
func (v SparseFloatVector) Map() map[uint32]float32 {
	out := make(map[uint32]float32, len(v.Indices))
	for i, idx := range v.Indices {
		if i < len(v.Values) {
			out[idx] = v.Values[i]
		}
	}
	return out
}

// Dim returns the dimension of a dense vector value, or 0 for other kinds.
// Binary vectors carry 8 dimensions per byte, half-precision vectors 2 bytes
// per dimension.
func Dim(v Value) int {
	switch vec := v.(type) {
	case FloatVector:
		return len(vec)
	case BinaryVector:
		return len(vec) * 8
	case Float16Vector:
		return len(vec) / 2
	case BFloat16Vector:
		return len(vec) / 2
	}
	return 0
}

// NewJSON marshals doc into a JSON value.
func NewJSON(doc any) (JSON, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("vectordb: encode json value: %w", err)
	}
	return JSON(b), nil
}

// NewArray builds an array value, checking that every element is of kind elem.
func NewArray(elem Kind, elements ...Value) (Array, error) {
	for i, e := range elements {
		if e == nil || e.Kind() != elem {
			return Array{}, fmt.Errorf("vectordb: array element %d is not %s", i, elem)
		}
	}
	return Array{Element: elem, Elements: elements}, nil
}
