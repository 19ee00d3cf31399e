package milvus

import (
	"encoding/binary"
	"math"

	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

// column is one decoded field of a columnar response.
type column struct {
	name    string
	dynamic bool
	values  []vectordb.Value
}

func decodeColumns(fields []*schemapb.FieldData) ([]column, int, error) {
	columns := make([]column, 0, len(fields))
	rows := -1
	for i, fd := range fields {
		if fd == nil {
			return nil, 0, decodeErrorf("field data %d is nil", i)
		}
		values, err := decodeFieldData(fd)
		if err != nil {
			return nil, 0, err
		}
		if rows >= 0 && len(values) != rows {
			return nil, 0, decodeErrorf("field '%s' has %d rows, previous fields have %d", fd.GetFieldName(), len(values), rows)
		}
		rows = len(values)
		columns = append(columns, column{name: fd.GetFieldName(), dynamic: fd.GetIsDynamic(), values: values})
	}
	if rows < 0 {
		rows = 0
	}
	return columns, rows, nil
}

// decodeFieldData turns one wire column into per-row values. Entries marked
// invalid in ValidData become Null; the data itself may be full-length or
// hold only the valid entries.
func decodeFieldData(fd *schemapb.FieldData) ([]vectordb.Value, error) {
	name := fd.GetFieldName()
	var (
		values []vectordb.Value
		err    error
	)
	if IsVectorType(fd.GetType()) {
		values, err = decodeVectors(fd.GetType(), fd.GetVectors())
	} else {
		values, err = decodeScalars(fd.GetType(), fd.GetScalars())
	}
	if err != nil {
		return nil, decodeErrorf("field '%s': %v", name, err)
	}
	if len(fd.GetValidData()) == 0 {
		return values, nil
	}
	out, err := applyValidData(values, fd.GetValidData())
	if err != nil {
		return nil, decodeErrorf("field '%s': %v", name, err)
	}
	return out, nil
}

func applyValidData(values []vectordb.Value, valid []bool) ([]vectordb.Value, error) {
	nValid := 0
	for _, ok := range valid {
		if ok {
			nValid++
		}
	}

	out := make([]vectordb.Value, len(valid))
	switch len(values) {
	case len(valid):
		for i, ok := range valid {
			if ok {
				out[i] = values[i]
			} else {
				out[i] = vectordb.Null{}
			}
		}
	case nValid:
		next := 0
		for i, ok := range valid {
			if ok {
				out[i] = values[next]
				next++
			} else {
				out[i] = vectordb.Null{}
			}
		}
	default:
		return nil, fieldErrorf("%d values do not fit %d validity flags", len(values), len(valid))
	}
	return out, nil
}

func decodeScalars(dt schemapb.DataType, sf *schemapb.ScalarField) ([]vectordb.Value, error) {
	if sf == nil {
		return nil, fieldErrorf("%s column carries no scalar data", dt.String())
	}

	switch dt {
	case schemapb.DataType_Bool:
		data := sf.GetBoolData()
		if data == nil {
			return nil, typeMismatch(dt, sf)
		}
		return mapValues(data.GetData(), func(v bool) vectordb.Value { return vectordb.Bool(v) }), nil

	case schemapb.DataType_Int8:
		data := sf.GetIntData()
		if data == nil {
			return nil, typeMismatch(dt, sf)
		}
		return mapValues(data.GetData(), func(v int32) vectordb.Value { return vectordb.Int8(v) }), nil

	case schemapb.DataType_Int16:
		data := sf.GetIntData()
		if data == nil {
			return nil, typeMismatch(dt, sf)
		}
		return mapValues(data.GetData(), func(v int32) vectordb.Value { return vectordb.Int16(v) }), nil

	case schemapb.DataType_Int32:
		data := sf.GetIntData()
		if data == nil {
			return nil, typeMismatch(dt, sf)
		}
		return mapValues(data.GetData(), func(v int32) vectordb.Value { return vectordb.Int32(v) }), nil

	case schemapb.DataType_Int64:
		data := sf.GetLongData()
		if data == nil {
			return nil, typeMismatch(dt, sf)
		}
		return mapValues(data.GetData(), func(v int64) vectordb.Value { return vectordb.Int64(v) }), nil

	case schemapb.DataType_Float:
		data := sf.GetFloatData()
		if data == nil {
			return nil, typeMismatch(dt, sf)
		}
		return mapValues(data.GetData(), func(v float32) vectordb.Value { return vectordb.Float(v) }), nil

	case schemapb.DataType_Double:
		data := sf.GetDoubleData()
		if data == nil {
			return nil, typeMismatch(dt, sf)
		}
		return mapValues(data.GetData(), func(v float64) vectordb.Value { return vectordb.Double(v) }), nil

	case schemapb.DataType_VarChar, schemapb.DataType_String:
		data := sf.GetStringData()
		if data == nil {
			return nil, typeMismatch(dt, sf)
		}
		return mapValues(data.GetData(), func(v string) vectordb.Value { return vectordb.String(v) }), nil

	case schemapb.DataType_JSON:
		data := sf.GetJsonData()
		if data == nil {
			return nil, typeMismatch(dt, sf)
		}
		return mapValues(data.GetData(), func(v []byte) vectordb.Value { return vectordb.JSON(v) }), nil

	case schemapb.DataType_Array:
		data := sf.GetArrayData()
		if data == nil {
			return nil, typeMismatch(dt, sf)
		}
		elem, ok := kindOf(data.GetElementType())
		if !ok || elem.IsVector() || elem == vectordb.KindArray {
			return nil, fieldErrorf("unsupported array element type %s", data.GetElementType().String())
		}
		out := make([]vectordb.Value, len(data.GetData()))
		for i, item := range data.GetData() {
			elements, err := decodeScalars(data.GetElementType(), item)
			if err != nil {
				return nil, fieldErrorf("array row %d: %v", i, err)
			}
			out[i] = vectordb.Array{Element: elem, Elements: elements}
		}
		return out, nil
	}

	return nil, fieldErrorf("unsupported scalar type %s", dt.String())
}

func decodeVectors(dt schemapb.DataType, vf *schemapb.VectorField) ([]vectordb.Value, error) {
	if vf == nil {
		return nil, fieldErrorf("%s column carries no vector data", dt.String())
	}
	dim := int(vf.GetDim())

	switch dt {
	case schemapb.DataType_FloatVector:
		data := vf.GetFloatVector()
		if data == nil {
			return nil, fieldErrorf("%s column carries no float vector data", dt.String())
		}
		flat := data.GetData()
		n, err := rowCount(len(flat), dim)
		if err != nil {
			return nil, err
		}
		out := make([]vectordb.Value, n)
		for i := range out {
			vec := make(vectordb.FloatVector, dim)
			copy(vec, flat[i*dim:(i+1)*dim])
			out[i] = vec
		}
		return out, nil

	case schemapb.DataType_BinaryVector:
		return splitBytes(vf.GetBinaryVector(), dim/8, func(b []byte) vectordb.Value { return vectordb.BinaryVector(b) })

	case schemapb.DataType_Float16Vector:
		return splitBytes(vf.GetFloat16Vector(), dim*2, func(b []byte) vectordb.Value { return vectordb.Float16Vector(b) })

	case schemapb.DataType_BFloat16Vector:
		return splitBytes(vf.GetBfloat16Vector(), dim*2, func(b []byte) vectordb.Value { return vectordb.BFloat16Vector(b) })

	case schemapb.DataType_SparseFloatVector:
		data := vf.GetSparseFloatVector()
		if data == nil {
			return nil, fieldErrorf("%s column carries no sparse vector data", dt.String())
		}
		out := make([]vectordb.Value, len(data.GetContents()))
		for i, row := range data.GetContents() {
			vec, err := decodeSparse(row)
			if err != nil {
				return nil, fieldErrorf("sparse row %d: %v", i, err)
			}
			out[i] = vec
		}
		return out, nil
	}

	return nil, fieldErrorf("unsupported vector type %s", dt.String())
}

func splitBytes(flat []byte, width int, wrap func([]byte) vectordb.Value) ([]vectordb.Value, error) {
	n, err := rowCount(len(flat), width)
	if err != nil {
		return nil, err
	}
	out := make([]vectordb.Value, n)
	for i := range out {
		b := make([]byte, width)
		copy(b, flat[i*width:(i+1)*width])
		out[i] = wrap(b)
	}
	return out, nil
}

func rowCount(size, width int) (int, error) {
	if size == 0 {
		return 0, nil
	}
	if width <= 0 {
		return 0, fieldErrorf("vector column has %d elements but dimension %d", size, width)
	}
	if size%width != 0 {
		return 0, fieldErrorf("vector column of %d elements is not a multiple of %d", size, width)
	}
	return size / width, nil
}

func decodeSparse(row []byte) (vectordb.SparseFloatVector, error) {
	if len(row)%8 != 0 {
		return vectordb.SparseFloatVector{}, fieldErrorf("%d bytes is not a whole number of index/value pairs", len(row))
	}
	n := len(row) / 8
	vec := vectordb.SparseFloatVector{Indices: make([]uint32, n), Values: make([]float32, n)}
	for i := 0; i < n; i++ {
		vec.Indices[i] = binary.LittleEndian.Uint32(row[8*i:])
		vec.Values[i] = math.Float32frombits(binary.LittleEndian.Uint32(row[8*i+4:]))
	}
	return vec, nil
}

func mapValues[T any](in []T, wrap func(T) vectordb.Value) []vectordb.Value {
	out := make([]vectordb.Value, len(in))
	for i, v := range in {
		out[i] = wrap(v)
	}
	return out
}

func typeMismatch(dt schemapb.DataType, sf *schemapb.ScalarField) error {
	return fieldErrorf("%s column carries %T", dt.String(), sf.GetData())
}
