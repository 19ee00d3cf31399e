package milvus

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

// buildColumns lays out rows column-wise in schema field order.
//
// On insert an auto-id primary key must not be supplied; on upsert it is
// required. Nullable fields and fields with a server-side default may be
// omitted or set to Null; their column then carries ValidData and holds only
// the valid values. Function output fields are computed by the server and
// must not be supplied. Keys not declared in the schema are collected into the
// dynamic JSON column when the collection enables it.
func buildColumns(schema *CollectionSchema, rows []map[string]vectordb.Value, upsert bool) ([]*schemapb.FieldData, error) {
	if len(rows) == 0 {
		return nil, invalidRequestf("no rows to write")
	}

	if err := checkRowKeys(schema, rows); err != nil {
		return nil, err
	}

	columns := make([]*schemapb.FieldData, 0, len(schema.fields)+1)
	for _, field := range schema.fields {
		if field.IsDynamic {
			continue
		}
		if field.IsFunctionOutput {
			for i, row := range rows {
				if _, ok := row[field.Name]; ok {
					return nil, invalidRequestf("row %d sets function output field '%s'", i, field.Name)
				}
			}
			continue
		}
		if field.IsPrimaryKey && field.AutoID && !upsert {
			for i, row := range rows {
				if _, ok := row[field.Name]; ok {
					return nil, invalidRequestf("row %d sets auto-id primary key '%s'", i, field.Name)
				}
			}
			continue
		}

		col, err := newColumnBuilder(field, len(rows))
		if err != nil {
			return nil, err
		}
		for i, row := range rows {
			v, ok := row[field.Name]
			if !ok || v == nil || v.Kind() == vectordb.KindNull {
				if !field.Nullable && !field.HasDefault {
					return nil, invalidRequestf("row %d is missing required field '%s'", i, field.Name)
				}
				col.appendNull()
				continue
			}
			if err := col.append(v); err != nil {
				return nil, invalidRequestf("row %d field '%s': %v", i, field.Name, err)
			}
		}
		columns = append(columns, col.fieldData())
	}

	if dyn, err := dynamicColumn(schema, rows); err != nil {
		return nil, err
	} else if dyn != nil {
		columns = append(columns, dyn)
	}

	return columns, nil
}

func checkRowKeys(schema *CollectionSchema, rows []map[string]vectordb.Value) error {
	for i, row := range rows {
		for name := range row {
			if f, ok := schema.Field(name); ok {
				if f.IsDynamic {
					return invalidRequestf("row %d sets dynamic field '%s' directly", i, name)
				}
				continue
			}
			if !schema.EnableDynamicField() {
				return invalidRequestf("row %d has field '%s' not in collection '%s'", i, name, schema.Name())
			}
		}
	}
	return nil
}

// dynamicColumn returns nil when no row carries an undeclared key.
func dynamicColumn(schema *CollectionSchema, rows []map[string]vectordb.Value) (*schemapb.FieldData, error) {
	if !schema.EnableDynamicField() {
		return nil, nil
	}

	docs := make([][]byte, len(rows))
	found := false
	for i, row := range rows {
		extra := make(map[string]any)
		for name, v := range row {
			if _, declared := schema.Field(name); declared || v == nil {
				continue
			}
			extra[name] = v.Interface()
		}
		if len(extra) > 0 {
			found = true
		}
		doc, err := json.Marshal(extra)
		if err != nil {
			return nil, invalidRequestf("row %d: encode dynamic fields: %v", i, err)
		}
		docs[i] = doc
	}
	if !found {
		return nil, nil
	}

	fd := &schemapb.FieldData{
		Type:      schemapb.DataType_JSON,
		FieldName: schema.DynamicFieldName(),
		IsDynamic: true,
		Field: &schemapb.FieldData_Scalars{Scalars: &schemapb.ScalarField{
			Data: &schemapb.ScalarField_JsonData{JsonData: &schemapb.JSONArray{Data: docs}},
		}},
	}
	if f, ok := schema.Field(schema.DynamicFieldName()); ok {
		fd.FieldId = f.FieldID
	}
	return fd, nil
}

// columnBuilder accumulates one field's values across rows.
type columnBuilder struct {
	field FieldDescriptor
	valid []bool
	nulls bool

	bools   []bool
	ints    []int32
	longs   []int64
	floats  []float32
	doubles []float64
	strs    []string
	jsons   [][]byte
	arrays  []*schemapb.ScalarField
	bytes   []byte
	sparse  [][]byte
	sparseD int64
}

func newColumnBuilder(field FieldDescriptor, rows int) (*columnBuilder, error) {
	switch field.DataType {
	case schemapb.DataType_Bool, schemapb.DataType_Int8, schemapb.DataType_Int16,
		schemapb.DataType_Int32, schemapb.DataType_Int64, schemapb.DataType_Float,
		schemapb.DataType_Double, schemapb.DataType_VarChar, schemapb.DataType_String,
		schemapb.DataType_JSON, schemapb.DataType_Array, schemapb.DataType_FloatVector,
		schemapb.DataType_BinaryVector, schemapb.DataType_Float16Vector,
		schemapb.DataType_BFloat16Vector, schemapb.DataType_SparseFloatVector:
	default:
		return nil, schemaErrorf("field '%s' has unsupported type %s", field.Name, field.DataType.String())
	}
	if field.IsVector && field.DataType != schemapb.DataType_SparseFloatVector && field.Dim <= 0 {
		return nil, schemaErrorf("vector field '%s' declares no dimension", field.Name)
	}
	return &columnBuilder{field: field, valid: make([]bool, 0, rows)}, nil
}

func (c *columnBuilder) appendNull() {
	c.valid = append(c.valid, false)
	c.nulls = true
}

func (c *columnBuilder) append(v vectordb.Value) error {
	f := c.field
	switch f.DataType {
	case schemapb.DataType_Bool:
		b, ok := v.(vectordb.Bool)
		if !ok {
			return kindMismatch(f, v)
		}
		c.bools = append(c.bools, bool(b))

	case schemapb.DataType_Int8, schemapb.DataType_Int16, schemapb.DataType_Int32:
		n, ok := widenInt(v, f.DataType)
		if !ok {
			return kindMismatch(f, v)
		}
		c.ints = append(c.ints, int32(n))

	case schemapb.DataType_Int64:
		n, ok := widenInt(v, f.DataType)
		if !ok {
			return kindMismatch(f, v)
		}
		c.longs = append(c.longs, n)

	case schemapb.DataType_Float:
		x, ok := v.(vectordb.Float)
		if !ok {
			return kindMismatch(f, v)
		}
		c.floats = append(c.floats, float32(x))

	case schemapb.DataType_Double:
		switch x := v.(type) {
		case vectordb.Double:
			c.doubles = append(c.doubles, float64(x))
		case vectordb.Float:
			c.doubles = append(c.doubles, float64(x))
		default:
			return kindMismatch(f, v)
		}

	case schemapb.DataType_VarChar, schemapb.DataType_String:
		s, ok := v.(vectordb.String)
		if !ok {
			return kindMismatch(f, v)
		}
		if f.MaxLength > 0 && int64(len(s)) > f.MaxLength {
			return fieldErrorf("value has %d bytes, max_length is %d", len(s), f.MaxLength)
		}
		c.strs = append(c.strs, string(s))

	case schemapb.DataType_JSON:
		doc, ok := v.(vectordb.JSON)
		if !ok {
			return kindMismatch(f, v)
		}
		if !json.Valid(doc) {
			return fieldErrorf("value is not valid JSON")
		}
		c.jsons = append(c.jsons, []byte(doc))

	case schemapb.DataType_Array:
		arr, ok := v.(vectordb.Array)
		if !ok {
			return kindMismatch(f, v)
		}
		sf, err := arrayScalarField(f.ElementType, arr)
		if err != nil {
			return err
		}
		c.arrays = append(c.arrays, sf)

	case schemapb.DataType_FloatVector:
		vec, ok := v.(vectordb.FloatVector)
		if !ok {
			return kindMismatch(f, v)
		}
		if err := checkDim(f, v); err != nil {
			return err
		}
		c.floats = append(c.floats, vec...)

	case schemapb.DataType_BinaryVector:
		vec, ok := v.(vectordb.BinaryVector)
		if !ok {
			return kindMismatch(f, v)
		}
		if err := checkDim(f, v); err != nil {
			return err
		}
		c.bytes = append(c.bytes, vec...)

	case schemapb.DataType_Float16Vector:
		vec, ok := v.(vectordb.Float16Vector)
		if !ok {
			return kindMismatch(f, v)
		}
		if err := checkDim(f, v); err != nil {
			return err
		}
		c.bytes = append(c.bytes, vec...)

	case schemapb.DataType_BFloat16Vector:
		vec, ok := v.(vectordb.BFloat16Vector)
		if !ok {
			return kindMismatch(f, v)
		}
		if err := checkDim(f, v); err != nil {
			return err
		}
		c.bytes = append(c.bytes, vec...)

	case schemapb.DataType_SparseFloatVector:
		vec, ok := v.(vectordb.SparseFloatVector)
		if !ok {
			return kindMismatch(f, v)
		}
		row, dim, err := encodeSparse(vec)
		if err != nil {
			return err
		}
		c.sparse = append(c.sparse, row)
		if dim > c.sparseD {
			c.sparseD = dim
		}
	}

	c.valid = append(c.valid, true)
	return nil
}

func (c *columnBuilder) fieldData() *schemapb.FieldData {
	f := c.field
	fd := &schemapb.FieldData{
		Type:      f.DataType,
		FieldName: f.Name,
		FieldId:   f.FieldID,
	}
	if c.nulls || f.Nullable {
		fd.ValidData = c.valid
	}

	scalar := func(sf *schemapb.ScalarField) {
		fd.Field = &schemapb.FieldData_Scalars{Scalars: sf}
	}
	vector := func(vf *schemapb.VectorField) {
		fd.Field = &schemapb.FieldData_Vectors{Vectors: vf}
	}

	switch f.DataType {
	case schemapb.DataType_Bool:
		scalar(&schemapb.ScalarField{Data: &schemapb.ScalarField_BoolData{BoolData: &schemapb.BoolArray{Data: c.bools}}})
	case schemapb.DataType_Int8, schemapb.DataType_Int16, schemapb.DataType_Int32:
		scalar(&schemapb.ScalarField{Data: &schemapb.ScalarField_IntData{IntData: &schemapb.IntArray{Data: c.ints}}})
	case schemapb.DataType_Int64:
		scalar(&schemapb.ScalarField{Data: &schemapb.ScalarField_LongData{LongData: &schemapb.LongArray{Data: c.longs}}})
	case schemapb.DataType_Float:
		scalar(&schemapb.ScalarField{Data: &schemapb.ScalarField_FloatData{FloatData: &schemapb.FloatArray{Data: c.floats}}})
	case schemapb.DataType_Double:
		scalar(&schemapb.ScalarField{Data: &schemapb.ScalarField_DoubleData{DoubleData: &schemapb.DoubleArray{Data: c.doubles}}})
	case schemapb.DataType_VarChar, schemapb.DataType_String:
		scalar(&schemapb.ScalarField{Data: &schemapb.ScalarField_StringData{StringData: &schemapb.StringArray{Data: c.strs}}})
	case schemapb.DataType_JSON:
		scalar(&schemapb.ScalarField{Data: &schemapb.ScalarField_JsonData{JsonData: &schemapb.JSONArray{Data: c.jsons}}})
	case schemapb.DataType_Array:
		scalar(&schemapb.ScalarField{Data: &schemapb.ScalarField_ArrayData{ArrayData: &schemapb.ArrayArray{
			Data:        c.arrays,
			ElementType: f.ElementType,
		}}})
	case schemapb.DataType_FloatVector:
		vector(&schemapb.VectorField{Dim: f.Dim, Data: &schemapb.VectorField_FloatVector{FloatVector: &schemapb.FloatArray{Data: c.floats}}})
	case schemapb.DataType_BinaryVector:
		vector(&schemapb.VectorField{Dim: f.Dim, Data: &schemapb.VectorField_BinaryVector{BinaryVector: c.bytes}})
	case schemapb.DataType_Float16Vector:
		vector(&schemapb.VectorField{Dim: f.Dim, Data: &schemapb.VectorField_Float16Vector{Float16Vector: c.bytes}})
	case schemapb.DataType_BFloat16Vector:
		vector(&schemapb.VectorField{Dim: f.Dim, Data: &schemapb.VectorField_Bfloat16Vector{Bfloat16Vector: c.bytes}})
	case schemapb.DataType_SparseFloatVector:
		vector(&schemapb.VectorField{Dim: c.sparseD, Data: &schemapb.VectorField_SparseFloatVector{SparseFloatVector: &schemapb.SparseFloatArray{
			Contents: c.sparse,
			Dim:      c.sparseD,
		}}})
	}
	return fd
}

var intWidth = map[schemapb.DataType]int{
	schemapb.DataType_Int8:  1,
	schemapb.DataType_Int16: 2,
	schemapb.DataType_Int32: 3,
	schemapb.DataType_Int64: 4,
}

// widenInt accepts integer values of the field's width or narrower.
func widenInt(v vectordb.Value, dt schemapb.DataType) (int64, bool) {
	width := intWidth[dt]

	switch x := v.(type) {
	case vectordb.Int8:
		return int64(x), width >= 1
	case vectordb.Int16:
		return int64(x), width >= 2
	case vectordb.Int32:
		return int64(x), width >= 3
	case vectordb.Int64:
		return int64(x), width >= 4
	}
	return 0, false
}

func arrayScalarField(elem schemapb.DataType, arr vectordb.Array) (*schemapb.ScalarField, error) {
	switch elem {
	case schemapb.DataType_Bool, schemapb.DataType_Int8, schemapb.DataType_Int16,
		schemapb.DataType_Int32, schemapb.DataType_Int64, schemapb.DataType_Float,
		schemapb.DataType_Double, schemapb.DataType_VarChar, schemapb.DataType_String:
	default:
		return nil, fieldErrorf("unsupported array element type %s", elem.String())
	}

	b := &columnBuilder{field: FieldDescriptor{DataType: elem}}
	for i, e := range arr.Elements {
		if e == nil || e.Kind() == vectordb.KindNull {
			return nil, fieldErrorf("array element %d is null", i)
		}
		if err := b.append(e); err != nil {
			return nil, fmt.Errorf("array element %d: %w", i, err)
		}
	}
	return b.fieldData().GetScalars(), nil
}

func checkDim(f FieldDescriptor, v vectordb.Value) error {
	if got := int64(vectordb.Dim(v)); got != f.Dim {
		return fieldErrorf("vector has dimension %d, field '%s' expects %d", got, f.Name, f.Dim)
	}
	return nil
}

// encodeSparse renders a sparse vector as sorted little-endian
// (uint32 index, float32 value) pairs. The second result is max index + 1.
func encodeSparse(v vectordb.SparseFloatVector) ([]byte, int64, error) {
	if len(v.Indices) != len(v.Values) {
		return nil, 0, fieldErrorf("sparse vector has %d indices and %d values", len(v.Indices), len(v.Values))
	}

	order := make([]int, len(v.Indices))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return v.Indices[order[a]] < v.Indices[order[b]] })

	out := make([]byte, 8*len(order))
	var dim int64
	for n, i := range order {
		if n > 0 && v.Indices[i] == v.Indices[order[n-1]] {
			return nil, 0, fieldErrorf("sparse vector repeats index %d", v.Indices[i])
		}
		binary.LittleEndian.PutUint32(out[8*n:], v.Indices[i])
		binary.LittleEndian.PutUint32(out[8*n+4:], math.Float32bits(v.Values[i]))
		if d := int64(v.Indices[i]) + 1; d > dim {
			dim = d
		}
	}
	return out, dim, nil
}

// encodeFloats renders a float vector as little-endian float32 bytes.
func encodeFloats(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

// kindOf maps a wire data type to the value kind it carries.
func kindOf(dt schemapb.DataType) (vectordb.Kind, bool) {
	switch dt {
	case schemapb.DataType_Bool:
		return vectordb.KindBool, true
	case schemapb.DataType_Int8:
		return vectordb.KindInt8, true
	case schemapb.DataType_Int16:
		return vectordb.KindInt16, true
	case schemapb.DataType_Int32:
		return vectordb.KindInt32, true
	case schemapb.DataType_Int64:
		return vectordb.KindInt64, true
	case schemapb.DataType_Float:
		return vectordb.KindFloat, true
	case schemapb.DataType_Double:
		return vectordb.KindDouble, true
	case schemapb.DataType_VarChar, schemapb.DataType_String:
		return vectordb.KindString, true
	case schemapb.DataType_JSON:
		return vectordb.KindJSON, true
	case schemapb.DataType_Array:
		return vectordb.KindArray, true
	case schemapb.DataType_FloatVector:
		return vectordb.KindFloatVector, true
	case schemapb.DataType_BinaryVector:
		return vectordb.KindBinaryVector, true
	case schemapb.DataType_Float16Vector:
		return vectordb.KindFloat16Vector, true
	case schemapb.DataType_BFloat16Vector:
		return vectordb.KindBFloat16Vector, true
	case schemapb.DataType_SparseFloatVector:
		return vectordb.KindSparseFloatVector, true
	}
	return vectordb.KindNull, false
}

func fieldErrorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

func kindMismatch(f FieldDescriptor, v vectordb.Value) error {
	want, _ := kindOf(f.DataType)
	return fieldErrorf("value is %s, field type %s wants %s", v.Kind(), f.DataType.String(), want)
}
