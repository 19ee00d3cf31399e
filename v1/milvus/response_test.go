package milvus

import (
	"testing"

	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestParseQueryResults_RowsInWireOrder(t *testing.T) {
	resp := &milvuspb.QueryResults{
		FieldsData: []*schemapb.FieldData{
			longColumn("id", 1, 2),
			stringColumn("val", "a", "b"),
		},
	}

	res, err := ParseQueryResults(resp)
	require.NoError(t, err)
	require.False(t, res.IsAggregate())
	require.Len(t, res.Rows, 2)

	assert.Equal(t, []string{"id", "val"}, res.Rows[0].Names())
	assert.Equal(t, map[string]any{"id": int64(1), "val": "a"}, res.Rows[0].ToMap())
	assert.Equal(t, map[string]any{"id": int64(2), "val": "b"}, res.Rows[1].ToMap())
}

func TestParseQueryResults_CountAggregate(t *testing.T) {
	resp := &milvuspb.QueryResults{
		FieldsData: []*schemapb.FieldData{longColumn(CountField, 42)},
	}

	res, err := ParseQueryResults(resp)
	require.NoError(t, err)
	require.True(t, res.IsAggregate())
	assert.Equal(t, int64(42), res.Aggregate.Count)
	assert.Empty(t, res.Rows)

	// Other fields, even malformed ones, are discarded.
	resp.FieldsData = append(resp.FieldsData, stringColumn("val", "a", "b", "c"), nil)
	res, err = ParseQueryResults(resp)
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.Aggregate.Count)
}

func TestParseQueryResults_MalformedCount(t *testing.T) {
	_, err := ParseQueryResults(&milvuspb.QueryResults{
		FieldsData: []*schemapb.FieldData{longColumn(CountField)},
	})
	assert.True(t, IsProtocolDecodeError(err))

	_, err = ParseQueryResults(&milvuspb.QueryResults{
		FieldsData: []*schemapb.FieldData{stringColumn(CountField, "42")},
	})
	assert.True(t, IsProtocolDecodeError(err))
}

func TestParseQueryResults_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		fields []*schemapb.FieldData
	}{
		{"uneven columns", []*schemapb.FieldData{longColumn("id", 1, 2), stringColumn("val", "a")}},
		{"nil field", []*schemapb.FieldData{nil}},
		{"type mismatch", []*schemapb.FieldData{{
			Type:      schemapb.DataType_Int64,
			FieldName: "id",
			Field: &schemapb.FieldData_Scalars{Scalars: &schemapb.ScalarField{
				Data: &schemapb.ScalarField_StringData{StringData: &schemapb.StringArray{Data: []string{"x"}}},
			}},
		}}},
		{"missing data", []*schemapb.FieldData{{Type: schemapb.DataType_Int64, FieldName: "id"}}},
		{"ragged vector", []*schemapb.FieldData{floatVectorColumn("emb", 2, 1, 2, 3)}},
		{"validity mismatch", []*schemapb.FieldData{func() *schemapb.FieldData {
			fd := longColumn("n", 1, 2)
			fd.ValidData = []bool{true, true, true, false}
			return fd
		}()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQueryResults(&milvuspb.QueryResults{FieldsData: tt.fields})
			assert.True(t, IsProtocolDecodeError(err), "got %v", err)
		})
	}

	_, err := ParseQueryResults(nil)
	assert.True(t, IsProtocolDecodeError(err))
}

func TestParseQueryResults_Empty(t *testing.T) {
	res, err := ParseQueryResults(&milvuspb.QueryResults{})
	require.NoError(t, err)
	assert.False(t, res.IsAggregate())
	assert.Empty(t, res.Rows)
}

func TestCheckOutputFields(t *testing.T) {
	schema := docsSchema(t)
	data := []*schemapb.FieldData{longColumn("id", 1), stringColumn("title", "a")}

	assert.NoError(t, CheckOutputFields([]string{"id", "title"}, data, schema))
	assert.NoError(t, CheckOutputFields([]string{"*", "title", "lang"}, data, schema), "wildcard and dynamic keys are not checked")
	assert.NoError(t, CheckOutputFields([]string{"id", "title", "n"}, nil, schema), "empty response")
	assert.NoError(t, CheckOutputFields([]string{CountField}, []*schemapb.FieldData{longColumn(CountField, 3)}, schema))

	err := CheckOutputFields([]string{"id", "title", "n"}, data, schema)
	assert.True(t, IsProtocolDecodeError(err), "got %v", err)
	assert.Contains(t, err.Error(), "'n'")
}

func TestCheckOutputFields_FunctionOutput(t *testing.T) {
	schema := bm25Schema(t)
	data := []*schemapb.FieldData{longColumn("id", 1)}

	assert.NoError(t, CheckOutputFields([]string{"id", "sparse"}, data, schema))
}

func TestParseQueryResults_NullableFullAndCompact(t *testing.T) {
	full := longColumn("n", 7, 0, 9)
	full.ValidData = []bool{true, false, true}
	compact := stringColumn("s", "x", "z")
	compact.ValidData = []bool{true, false, true}

	res, err := ParseQueryResults(&milvuspb.QueryResults{FieldsData: []*schemapb.FieldData{full, compact}})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	n, _ := res.Rows[1].Get("n")
	assert.Equal(t, vectordb.Null{}, n)
	s, _ := res.Rows[1].Get("s")
	assert.Equal(t, vectordb.Null{}, s)

	assert.Equal(t, map[string]any{"n": int64(9), "s": "z"}, res.Rows[2].ToMap())
}

func TestParseQueryResults_DynamicFieldExpanded(t *testing.T) {
	resp := &milvuspb.QueryResults{
		FieldsData: []*schemapb.FieldData{
			longColumn("id", 1, 2),
			jsonColumn("$meta", true, `{"z":1,"id":99,"a":"x"}`, `{}`),
			stringColumn("title", "t1", "t2"),
		},
	}

	res, err := ParseQueryResults(resp)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, []string{"id", "title", "a", "z"}, res.Rows[0].Names())
	assert.Equal(t, map[string]any{"id": int64(1), "title": "t1", "a": "x", "z": float64(1)}, res.Rows[0].ToMap())
	assert.Equal(t, []string{"id", "title"}, res.Rows[1].Names())

	resp.FieldsData[1] = jsonColumn("$meta", true, `[1]`, `{}`)
	_, err = ParseQueryResults(resp)
	assert.True(t, IsProtocolDecodeError(err))
}

func TestParseQueryResults_VectorsAndArrays(t *testing.T) {
	resp := &milvuspb.QueryResults{
		FieldsData: []*schemapb.FieldData{
			floatVectorColumn("emb", 2, 1, 2, 3, 4),
			{
				Type:      schemapb.DataType_BinaryVector,
				FieldName: "bits",
				Field: &schemapb.FieldData_Vectors{Vectors: &schemapb.VectorField{
					Dim:  16,
					Data: &schemapb.VectorField_BinaryVector{BinaryVector: []byte{1, 2, 3, 4}},
				}},
			},
			{
				Type:      schemapb.DataType_Array,
				FieldName: "tags",
				Field: &schemapb.FieldData_Scalars{Scalars: &schemapb.ScalarField{
					Data: &schemapb.ScalarField_ArrayData{ArrayData: &schemapb.ArrayArray{
						ElementType: schemapb.DataType_VarChar,
						Data: []*schemapb.ScalarField{
							{Data: &schemapb.ScalarField_StringData{StringData: &schemapb.StringArray{Data: []string{"a"}}}},
							{Data: &schemapb.ScalarField_StringData{StringData: &schemapb.StringArray{Data: []string{}}}},
						},
					}},
				}},
			},
		},
	}

	res, err := ParseQueryResults(resp)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	emb, _ := res.Rows[1].Get("emb")
	assert.Equal(t, vectordb.FloatVector{3, 4}, emb)
	bits, _ := res.Rows[0].Get("bits")
	assert.Equal(t, vectordb.BinaryVector{1, 2}, bits)
	tags, _ := res.Rows[0].Get("tags")
	assert.Equal(t, []any{"a"}, tags.Interface())
}

func TestParseQueryResults_Idempotent(t *testing.T) {
	resp := &milvuspb.QueryResults{
		FieldsData: []*schemapb.FieldData{
			longColumn("id", 3, 1, 2),
			jsonColumn("$meta", true, `{"b":1,"a":2}`, `{"c":3}`, `{}`),
		},
	}
	wire, err := proto.Marshal(resp)
	require.NoError(t, err)

	var first, second milvuspb.QueryResults
	require.NoError(t, proto.Unmarshal(wire, &first))
	require.NoError(t, proto.Unmarshal(wire, &second))

	a, err := ParseQueryResults(&first)
	require.NoError(t, err)
	b, err := ParseQueryResults(&second)
	require.NoError(t, err)

	require.Equal(t, len(a.Rows), len(b.Rows))
	for i := range a.Rows {
		assert.Equal(t, a.Rows[i].Names(), b.Rows[i].Names())
		assert.Equal(t, a.Rows[i].ToMap(), b.Rows[i].ToMap())
	}
}

// ── Search ───────────────────────────────────────────────────────────────────

func twoQuerySearchResults() *milvuspb.SearchResults {
	return &milvuspb.SearchResults{
		CollectionName: "docs",
		Results: &schemapb.SearchResultData{
			NumQueries: 2,
			TopK:       2,
			Topks:      []int64{2, 1},
			Ids:        intIDs(10, 11, 20),
			Scores:     []float32{0.9, 0.8, 0.7},
			FieldsData: []*schemapb.FieldData{
				stringColumn("title", "a", "b", "c"),
			},
		},
	}
}

func TestParseSearchResults_FirstQuery(t *testing.T) {
	hits, err := ParseSearchResults(twoQuerySearchResults())
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, int64(10), hits[0].ID)
	assert.Equal(t, float32(0.9), hits[0].Score)
	assert.Equal(t, "docs", hits[0].CollectionName)
	title, _ := hits[0].Fields.Get("title")
	assert.Equal(t, vectordb.String("a"), title)

	assert.Equal(t, int64(11), hits[1].ID)
	assert.Equal(t, float32(0.8), hits[1].Score)
}

func TestSearchHits_LaterQuery(t *testing.T) {
	resp := twoQuerySearchResults()
	assert.Equal(t, 2, NumQueries(resp))

	hits, err := SearchHits(resp, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(20), hits[0].ID)
	assert.Equal(t, map[string]any{"title": "c"}, hits[0].Fields.ToMap())

	_, err = SearchHits(resp, 2)
	assert.True(t, IsProtocolDecodeError(err))
}

func TestParseAllSearchResults(t *testing.T) {
	all, err := ParseAllSearchResults(twoQuerySearchResults())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Len(t, all[0], 2)
	assert.Len(t, all[1], 1)
}

func TestParseSearchResults_StringIDsWithoutTopks(t *testing.T) {
	resp := &milvuspb.SearchResults{
		Results: &schemapb.SearchResultData{
			NumQueries: 1,
			Ids:        &schemapb.IDs{IdField: &schemapb.IDs_StrId{StrId: &schemapb.StringArray{Data: []string{"x", "y"}}}},
			Scores:     []float32{1.5, 0.5},
		},
	}

	hits, err := ParseSearchResults(resp)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].ID)
	assert.Equal(t, 0, hits[0].Fields.Len())
}

func TestParseSearchResults_NoResults(t *testing.T) {
	hits, err := ParseSearchResults(&milvuspb.SearchResults{})
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, 0, NumQueries(&milvuspb.SearchResults{}))

	hits, err = ParseSearchResults(&milvuspb.SearchResults{Results: &schemapb.SearchResultData{NumQueries: 1, Topks: []int64{0}}})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestParseSearchResults_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data *schemapb.SearchResultData
	}{
		{"scores mismatch", &schemapb.SearchResultData{Topks: []int64{2}, Ids: intIDs(1, 2), Scores: []float32{1}}},
		{"topks mismatch", &schemapb.SearchResultData{Topks: []int64{3}, Ids: intIDs(1, 2), Scores: []float32{1, 2}}},
		{"fields mismatch", &schemapb.SearchResultData{
			Topks: []int64{2}, Ids: intIDs(1, 2), Scores: []float32{1, 2},
			FieldsData: []*schemapb.FieldData{stringColumn("t", "a")},
		}},
		{"multi query without topks", &schemapb.SearchResultData{NumQueries: 2, Ids: intIDs(1, 2), Scores: []float32{1, 2}}},
		{"negative topk", &schemapb.SearchResultData{Topks: []int64{-1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSearchResults(&milvuspb.SearchResults{Results: tt.data})
			assert.True(t, IsProtocolDecodeError(err), "got %v", err)
		})
	}

	_, err := ParseSearchResults(nil)
	assert.True(t, IsProtocolDecodeError(err))
}

func TestMutationResult(t *testing.T) {
	res, err := mutationResult(&milvuspb.MutationResult{IDs: intIDs(1, 2), InsertCnt: 2}, func(r *milvuspb.MutationResult) int64 {
		return r.GetInsertCnt()
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Count)
	assert.Equal(t, []any{int64(1), int64(2)}, res.IDs)

	_, err = mutationResult(nil, nil)
	assert.True(t, IsProtocolDecodeError(err))
}
