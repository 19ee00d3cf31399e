package milvus

import (
	"strconv"
	"testing"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
	"github.com/stretchr/testify/require"
)

func pkField(name string, dt schemapb.DataType) *schemapb.FieldSchema {
	f := &schemapb.FieldSchema{FieldID: 100, Name: name, DataType: dt, IsPrimaryKey: true}
	if dt == schemapb.DataType_VarChar {
		f.TypeParams = []*commonpb.KeyValuePair{{Key: "max_length", Value: "64"}}
	}
	return f
}

func scalarField(id int64, name string, dt schemapb.DataType) *schemapb.FieldSchema {
	return &schemapb.FieldSchema{FieldID: id, Name: name, DataType: dt}
}

func vectorField(id int64, name string, dt schemapb.DataType, dim int) *schemapb.FieldSchema {
	return &schemapb.FieldSchema{
		FieldID:    id,
		Name:       name,
		DataType:   dt,
		TypeParams: []*commonpb.KeyValuePair{{Key: "dim", Value: strconv.Itoa(dim)}},
	}
}

func describeResponse(name string, dynamic bool, fields ...*schemapb.FieldSchema) *milvuspb.DescribeCollectionResponse {
	return &milvuspb.DescribeCollectionResponse{
		Status: &commonpb.Status{},
		Schema: &schemapb.CollectionSchema{
			Name:               name,
			Fields:             fields,
			EnableDynamicField: dynamic,
		},
	}
}

// docsSchema is the collection most tests run against:
// id Int64 pk, title VarChar(64), n Int32, emb FloatVector(3).
func docsSchema(t *testing.T) *CollectionSchema {
	t.Helper()
	title := scalarField(101, "title", schemapb.DataType_VarChar)
	title.TypeParams = []*commonpb.KeyValuePair{{Key: "max_length", Value: "16"}}

	s, err := ReadSchema(describeResponse("docs", false,
		pkField("id", schemapb.DataType_Int64),
		title,
		scalarField(102, "n", schemapb.DataType_Int32),
		vectorField(103, "emb", schemapb.DataType_FloatVector, 3),
	))
	require.NoError(t, err)
	return s
}

// bm25Schema has a sparse field filled by a server-side function:
// id Int64 pk, text VarChar(64), sparse SparseFloatVector (function output),
// dense FloatVector(2).
func bm25Schema(t *testing.T) *CollectionSchema {
	t.Helper()
	text := scalarField(101, "text", schemapb.DataType_VarChar)
	text.TypeParams = []*commonpb.KeyValuePair{{Key: "max_length", Value: "64"}}
	sparse := &schemapb.FieldSchema{FieldID: 102, Name: "sparse", DataType: schemapb.DataType_SparseFloatVector, IsFunctionOutput: true}

	s, err := ReadSchema(describeResponse("articles", false,
		pkField("id", schemapb.DataType_Int64),
		text,
		sparse,
		vectorField(103, "dense", schemapb.DataType_FloatVector, 2),
	))
	require.NoError(t, err)
	return s
}

func longColumn(name string, data ...int64) *schemapb.FieldData {
	return &schemapb.FieldData{
		Type:      schemapb.DataType_Int64,
		FieldName: name,
		Field: &schemapb.FieldData_Scalars{Scalars: &schemapb.ScalarField{
			Data: &schemapb.ScalarField_LongData{LongData: &schemapb.LongArray{Data: data}},
		}},
	}
}

func stringColumn(name string, data ...string) *schemapb.FieldData {
	return &schemapb.FieldData{
		Type:      schemapb.DataType_VarChar,
		FieldName: name,
		Field: &schemapb.FieldData_Scalars{Scalars: &schemapb.ScalarField{
			Data: &schemapb.ScalarField_StringData{StringData: &schemapb.StringArray{Data: data}},
		}},
	}
}

func jsonColumn(name string, dynamic bool, docs ...string) *schemapb.FieldData {
	data := make([][]byte, len(docs))
	for i, d := range docs {
		data[i] = []byte(d)
	}
	return &schemapb.FieldData{
		Type:      schemapb.DataType_JSON,
		FieldName: name,
		IsDynamic: dynamic,
		Field: &schemapb.FieldData_Scalars{Scalars: &schemapb.ScalarField{
			Data: &schemapb.ScalarField_JsonData{JsonData: &schemapb.JSONArray{Data: data}},
		}},
	}
}

func floatVectorColumn(name string, dim int64, data ...float32) *schemapb.FieldData {
	return &schemapb.FieldData{
		Type:      schemapb.DataType_FloatVector,
		FieldName: name,
		Field: &schemapb.FieldData_Vectors{Vectors: &schemapb.VectorField{
			Dim:  dim,
			Data: &schemapb.VectorField_FloatVector{FloatVector: &schemapb.FloatArray{Data: data}},
		}},
	}
}

func intIDs(ids ...int64) *schemapb.IDs {
	return &schemapb.IDs{IdField: &schemapb.IDs_IntId{IntId: &schemapb.LongArray{Data: ids}}}
}

func searchParam(t *testing.T, params []*commonpb.KeyValuePair, key string) string {
	t.Helper()
	for _, p := range params {
		if p.GetKey() == key {
			return p.GetValue()
		}
	}
	t.Fatalf("search param %q not set", key)
	return ""
}
