package milvus

import (
	"encoding/json"
	"strconv"

	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"google.golang.org/protobuf/proto"
)

// Search and query parameter keys of the wire protocol.
const (
	searchKeyAnnsField     = "anns_field"
	searchKeyTopK          = "topk"
	searchKeyMetricType    = "metric_type"
	searchKeyParams        = "params"
	searchKeyRoundDecimal  = "round_decimal"
	searchKeyOffset        = "offset"
	searchKeyGroupBy       = "group_by_field"
	paramKeyIgnoreGrowing  = "ignore_growing"
	queryKeyLimit          = "limit"
	queryKeyOffset         = "offset"
	placeholderTag         = "$0"
	defaultRoundDecimal    = -1
	defaultSearchParamsDoc = "{}"
)

// BuildInsertRequest lays out the rows column-wise in schema field order.
func BuildInsertRequest(req vectordb.InsertRequest, schema *CollectionSchema) (*milvuspb.InsertRequest, error) {
	if err := requireCollection(req.CollectionName); err != nil {
		return nil, err
	}
	columns, err := buildColumns(schema, req.Rows, false)
	if err != nil {
		return nil, err
	}
	return &milvuspb.InsertRequest{
		DbName:         req.DBName,
		CollectionName: req.CollectionName,
		PartitionName:  req.PartitionName,
		FieldsData:     columns,
		NumRows:        uint32(len(req.Rows)),
	}, nil
}

// BuildUpsertRequest lays out the rows column-wise in schema field order.
// Unlike insert, every row must carry its primary key.
func BuildUpsertRequest(req vectordb.UpsertRequest, schema *CollectionSchema) (*milvuspb.UpsertRequest, error) {
	if err := requireCollection(req.CollectionName); err != nil {
		return nil, err
	}
	pk := schema.PrimaryFieldName()
	for i, row := range req.Rows {
		if v, ok := row[pk]; !ok || v == nil || v.Kind() == vectordb.KindNull {
			return nil, invalidRequestf("upsert row %d is missing primary key '%s'", i, pk)
		}
	}
	columns, err := buildColumns(schema, req.Rows, true)
	if err != nil {
		return nil, err
	}
	return &milvuspb.UpsertRequest{
		DbName:         req.DBName,
		CollectionName: req.CollectionName,
		PartitionName:  req.PartitionName,
		FieldsData:     columns,
		NumRows:        uint32(len(req.Rows)),
	}, nil
}

// BuildDeleteRequest resolves the delete filter. Without an explicit filter
// the expression is derived from the id list; a request with neither, an
// explicitly empty filter or an empty id list is rejected.
func BuildDeleteRequest(req vectordb.DeleteRequest, schema *CollectionSchema) (*milvuspb.DeleteRequest, error) {
	if err := requireCollection(req.CollectionName); err != nil {
		return nil, err
	}
	if req.Filter != nil && *req.Filter == "" {
		return nil, invalidRequestf("delete with an empty filter expression")
	}
	if req.Filter == nil && req.Filters.IsEmpty() && req.IDs != nil && len(req.IDs) == 0 {
		return nil, invalidRequestf("delete with an empty id list")
	}

	expr, set, err := resolveFilter(schema, req.Filter, req.Filters, req.IDs)
	if err != nil {
		return nil, err
	}
	if !set {
		return nil, invalidRequestf("delete needs a filter or an id list")
	}

	return &milvuspb.DeleteRequest{
		DbName:         req.DBName,
		CollectionName: req.CollectionName,
		PartitionName:  req.PartitionName,
		Expr:           expr,
	}, nil
}

// BuildQueryRequest fills unset parameters from the schema: output fields
// default to every schema field and, without an explicit filter, the
// expression is derived from the id list.
func BuildQueryRequest(req vectordb.QueryRequest, schema *CollectionSchema) (*milvuspb.QueryRequest, error) {
	if err := requireCollection(req.CollectionName); err != nil {
		return nil, err
	}
	if req.Limit < 0 || req.Offset < 0 {
		return nil, invalidRequestf("negative limit or offset")
	}

	expr, _, err := resolveFilter(schema, req.Filter, req.Filters, req.IDs)
	if err != nil {
		return nil, err
	}

	out := &milvuspb.QueryRequest{
		DbName:         req.DBName,
		CollectionName: req.CollectionName,
		Expr:           expr,
		OutputFields:   resolveOutputFields(req.OutputFields, schema),
		PartitionNames: cloneStrings(req.PartitionNames),
	}

	if req.Limit > 0 {
		out.QueryParams = append(out.QueryParams, kv(queryKeyLimit, strconv.FormatInt(req.Limit, 10)))
	}
	if req.Offset > 0 {
		out.QueryParams = append(out.QueryParams, kv(queryKeyOffset, strconv.FormatInt(req.Offset, 10)))
	}
	if req.IgnoreGrowing {
		out.QueryParams = append(out.QueryParams, kv(paramKeyIgnoreGrowing, "true"))
	}
	out.ConsistencyLevel, out.UseDefaultConsistency = consistency(req.ConsistencyLevel)

	return out, nil
}

// GetAsQuery rewrites a get into the query that executes it.
func GetAsQuery(req vectordb.GetRequest) vectordb.QueryRequest {
	ids := req.IDs
	if ids == nil {
		ids = []any{}
	}
	return vectordb.QueryRequest{
		DBName:         req.DBName,
		CollectionName: req.CollectionName,
		PartitionNames: req.PartitionNames,
		OutputFields:   req.OutputFields,
		IDs:            ids,
	}
}

// CountQuery returns the count(*) query over the rows matching filter.
// A nil filter counts the whole collection.
func CountQuery(collection string, filter *string) vectordb.QueryRequest {
	return vectordb.QueryRequest{
		CollectionName: collection,
		OutputFields:   []string{CountField},
		Filter:         filter,
	}
}

// ResolvedSearch is a search request whose schema-derived parameters are
// filled in. It is produced by ResolveSearch and consumed by BuildSearchRequest.
type ResolvedSearch struct {
	// Request is a copy of the caller's request with AnnsField and
	// OutputFields set.
	Request vectordb.SearchRequest

	// Field is the descriptor of the searched vector field.
	Field FieldDescriptor

	// Expr is the resolved filter expression, "" when unfiltered.
	Expr string
}

// ResolveSearch ──────────────────────────────────────────────────────────────
// ResolveSearch
// ──────────────────────────────────────────────────────────────
//
// ResolveSearch validates a search request and fills its unset parameters
// from the schema. The caller's request is not modified.
//
// Without AnnsField the first vector field of the collection that is not a
// function output is searched; a collection with no such field yields
// ErrSchema. An explicit AnnsField is used as given, even when empty.
// Without OutputFields every returnable schema field is requested. All query
// vectors must match the kind and dimension of the searched field.
func ResolveSearch(req vectordb.SearchRequest, schema *CollectionSchema) (ResolvedSearch, error) {
	if err := requireCollection(req.CollectionName); err != nil {
		return ResolvedSearch{}, err
	}
	if len(req.Vectors) == 0 {
		return ResolvedSearch{}, invalidRequestf("search needs at least one query vector")
	}
	if req.TopK <= 0 {
		return ResolvedSearch{}, invalidRequestf("topK must be positive, got %d", req.TopK)
	}
	if req.Offset < 0 {
		return ResolvedSearch{}, invalidRequestf("negative offset")
	}

	resolved := req
	var annsField string
	if req.AnnsField == nil {
		name, ok := schema.DefaultVectorFieldName()
		if !ok {
			return ResolvedSearch{}, schemaErrorf("collection '%s' has no vector field", schema.Name())
		}
		annsField = name
	} else {
		annsField = *req.AnnsField
	}
	resolved.AnnsField = &annsField

	field, ok := schema.Field(annsField)
	if !ok {
		return ResolvedSearch{}, invalidRequestf("search field '%s' is not in collection '%s'", annsField, schema.Name())
	}
	if !field.IsVector {
		return ResolvedSearch{}, invalidRequestf("search field '%s' is not a vector field", field.Name)
	}

	want, _ := kindOf(field.DataType)
	for i, v := range req.Vectors {
		if v == nil || v.Kind() != want {
			return ResolvedSearch{}, invalidRequestf("query vector %d is %s, field '%s' holds %s", i, kindName(v), field.Name, want)
		}
		if want != vectordb.KindSparseFloatVector && field.Dim > 0 && int64(vectordb.Dim(v)) != field.Dim {
			return ResolvedSearch{}, invalidRequestf("query vector %d has dimension %d, field '%s' expects %d", i, vectordb.Dim(v), field.Name, field.Dim)
		}
	}

	expr, _, err := resolveFilter(schema, req.Filter, req.Filters, nil)
	if err != nil {
		return ResolvedSearch{}, err
	}

	resolved.OutputFields = resolveOutputFields(req.OutputFields, schema)
	resolved.PartitionNames = cloneStrings(req.PartitionNames)
	resolved.Vectors = append([]vectordb.Value(nil), req.Vectors...)

	return ResolvedSearch{Request: resolved, Field: field, Expr: expr}, nil
}

// BuildSearchRequest emits the wire search request. The metric type always
// comes from the index built on the searched field; an index without one
// yields ErrIndexNotConfigured.
func BuildSearchRequest(rs ResolvedSearch, index IndexMetadata) (*milvuspb.SearchRequest, error) {
	metric, ok := index.MetricType()
	if !ok || metric == "" {
		return nil, fmtIndexNotConfigured(rs.Field.Name, index.IndexName)
	}

	req := rs.Request

	paramsDoc := defaultSearchParamsDoc
	if len(req.Params) > 0 {
		b, err := json.Marshal(req.Params)
		if err != nil {
			return nil, invalidRequestf("encode search params: %v", err)
		}
		paramsDoc = string(b)
	}

	roundDecimal := defaultRoundDecimal
	if req.RoundDecimal != nil {
		roundDecimal = *req.RoundDecimal
	}

	group, err := placeholderGroup(req.Vectors)
	if err != nil {
		return nil, err
	}

	params := []*commonpb.KeyValuePair{
		kv(searchKeyAnnsField, rs.Field.Name),
		kv(searchKeyTopK, strconv.Itoa(req.TopK)),
		kv(searchKeyMetricType, metric),
		kv(searchKeyParams, paramsDoc),
		kv(searchKeyRoundDecimal, strconv.Itoa(roundDecimal)),
		kv(searchKeyOffset, strconv.FormatInt(req.Offset, 10)),
	}
	if req.GroupByField != "" {
		params = append(params, kv(searchKeyGroupBy, req.GroupByField))
	}
	if req.IgnoreGrowing {
		params = append(params, kv(paramKeyIgnoreGrowing, "true"))
	}

	out := &milvuspb.SearchRequest{
		DbName:           req.DBName,
		CollectionName:   req.CollectionName,
		PartitionNames:   req.PartitionNames,
		Dsl:              rs.Expr,
		DslType:          commonpb.DslType_BoolExprV1,
		PlaceholderGroup: group,
		OutputFields:     req.OutputFields,
		SearchParams:     params,
		Nq:               int64(len(req.Vectors)),
	}
	out.ConsistencyLevel, out.UseDefaultConsistency = consistency(req.ConsistencyLevel)
	return out, nil
}

// placeholderGroup encodes the query vectors under tag $0.
func placeholderGroup(vectors []vectordb.Value) ([]byte, error) {
	value := &commonpb.PlaceholderValue{
		Tag:    placeholderTag,
		Values: make([][]byte, 0, len(vectors)),
	}

	for i, v := range vectors {
		switch vec := v.(type) {
		case vectordb.FloatVector:
			value.Type = commonpb.PlaceholderType_FloatVector
			value.Values = append(value.Values, encodeFloats(vec))
		case vectordb.BinaryVector:
			value.Type = commonpb.PlaceholderType_BinaryVector
			value.Values = append(value.Values, []byte(vec))
		case vectordb.Float16Vector:
			value.Type = commonpb.PlaceholderType_Float16Vector
			value.Values = append(value.Values, []byte(vec))
		case vectordb.BFloat16Vector:
			value.Type = commonpb.PlaceholderType_BFloat16Vector
			value.Values = append(value.Values, []byte(vec))
		case vectordb.SparseFloatVector:
			row, _, err := encodeSparse(vec)
			if err != nil {
				return nil, invalidRequestf("query vector %d: %v", i, err)
			}
			value.Type = commonpb.PlaceholderType_SparseFloatVector
			value.Values = append(value.Values, row)
		default:
			return nil, invalidRequestf("query vector %d is %s, not a vector", i, kindName(v))
		}
	}

	b, err := proto.Marshal(&commonpb.PlaceholderGroup{Placeholders: []*commonpb.PlaceholderValue{value}})
	if err != nil {
		return nil, invalidRequestf("encode placeholder group: %v", err)
	}
	return b, nil
}

func fmtIndexNotConfigured(field, index string) error {
	if index == "" {
		return indexNotConfiguredf("field '%s' has no metric type", field)
	}
	return indexNotConfiguredf("index '%s' on field '%s' has no metric type", index, field)
}

func resolveOutputFields(fields []string, schema *CollectionSchema) []string {
	if fields == nil {
		return schema.AllFieldNames()
	}
	return cloneStrings(fields)
}

func consistency(level vectordb.ConsistencyLevel) (commonpb.ConsistencyLevel, bool) {
	switch level {
	case vectordb.ConsistencyStrong:
		return commonpb.ConsistencyLevel_Strong, false
	case vectordb.ConsistencySession:
		return commonpb.ConsistencyLevel_Session, false
	case vectordb.ConsistencyBounded:
		return commonpb.ConsistencyLevel_Bounded, false
	case vectordb.ConsistencyEventually:
		return commonpb.ConsistencyLevel_Eventually, false
	}
	return commonpb.ConsistencyLevel_Bounded, true
}

func requireCollection(name string) error {
	if name == "" {
		return invalidRequestf("collection name cannot be empty")
	}
	return nil
}

func kv(key, value string) *commonpb.KeyValuePair {
	return &commonpb.KeyValuePair{Key: key, Value: value}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func kindName(v vectordb.Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
