package milvus

import (
	"encoding/json"
	"sort"

	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
)

// CountField is the output field name of a count aggregate query.
const CountField = "count(*)"

// ParseQueryResults ──────────────────────────────────────────────────────────────
// ParseQueryResults
// ──────────────────────────────────────────────────────────────
//
// ParseQueryResults reconstructs rows from a columnar query response.
//
// A response that carries a "count(*)" field is a count aggregate: the
// first element of that field becomes the result's Aggregate and every
// other field is discarded. Otherwise one Row is built per returned row, in
// wire order, with fields in wire order. Keys of the dynamic JSON field are
// expanded into the row in sorted order; they never replace a declared field.
//
// Malformed responses (columns of different length, missing or mistyped
// data) yield ErrProtocolDecode.
func ParseQueryResults(resp *milvuspb.QueryResults) (*vectordb.QueryResult, error) {
	if resp == nil {
		return nil, decodeErrorf("nil query results")
	}

	for _, fd := range resp.GetFieldsData() {
		if fd.GetFieldName() == CountField {
			count, err := decodeCount(fd)
			if err != nil {
				return nil, err
			}
			return &vectordb.QueryResult{Aggregate: &vectordb.AggregateResult{Count: count}}, nil
		}
	}

	columns, n, err := decodeColumns(resp.GetFieldsData())
	if err != nil {
		return nil, err
	}

	rows := make([]vectordb.Row, n)
	for i := 0; i < n; i++ {
		row, err := buildRow(columns, i)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return &vectordb.QueryResult{Rows: rows}, nil
}

// CheckOutputFields verifies that a response carrying rows holds a column for
// every requested schema field. The wildcard, count(*), dynamic keys and
// function output fields are not checked. A response without any column is
// taken as empty and passes.
func CheckOutputFields(requested []string, data []*schemapb.FieldData, schema *CollectionSchema) error {
	if len(data) == 0 {
		return nil
	}
	present := make(map[string]bool, len(data))
	for _, fd := range data {
		if fd.GetFieldName() == CountField {
			return nil
		}
		present[fd.GetFieldName()] = true
	}

	for _, name := range requested {
		if name == "*" || name == CountField || present[name] {
			continue
		}
		f, ok := schema.Field(name)
		if !ok || f.IsFunctionOutput {
			continue
		}
		return decodeErrorf("response has no data for output field '%s'", name)
	}
	return nil
}

func decodeCount(fd *schemapb.FieldData) (int64, error) {
	longs := fd.GetScalars().GetLongData()
	if longs == nil {
		return 0, decodeErrorf("count field carries no integer data")
	}
	if len(longs.GetData()) == 0 {
		return 0, decodeErrorf("count field is empty")
	}
	return longs.GetData()[0], nil
}

// buildRow assembles row i from decoded columns. Declared fields come first
// in wire order, then dynamic keys.
func buildRow(columns []column, i int) (vectordb.Row, error) {
	entries := make([]vectordb.Entry, 0, len(columns))
	declared := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c.dynamic {
			continue
		}
		entries = append(entries, vectordb.Entry{Name: c.name, Value: c.values[i]})
		declared[c.name] = true
	}

	for _, c := range columns {
		if !c.dynamic {
			continue
		}
		extra, err := expandDynamic(c, i, declared)
		if err != nil {
			return vectordb.Row{}, err
		}
		entries = append(entries, extra...)
	}

	return vectordb.NewRow(entries...), nil
}

func expandDynamic(c column, i int, declared map[string]bool) ([]vectordb.Entry, error) {
	doc, ok := c.values[i].(vectordb.JSON)
	if !ok || len(doc) == 0 {
		return nil, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil {
		return nil, decodeErrorf("dynamic field '%s' row %d is not a JSON object: %v", c.name, i, err)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		if !declared[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]vectordb.Entry, len(keys))
	for j, k := range keys {
		out[j] = vectordb.Entry{Name: k, Value: vectordb.JSON(obj[k])}
	}
	return out, nil
}

// NumQueries returns the number of query vectors a search response answers.
func NumQueries(resp *milvuspb.SearchResults) int {
	data := resp.GetResults()
	if data == nil {
		return 0
	}
	if n := len(data.GetTopks()); n > 0 {
		return n
	}
	return int(data.GetNumQueries())
}

// ParseSearchResults returns the hits of the first query vector.
func ParseSearchResults(resp *milvuspb.SearchResults) ([]vectordb.SearchResult, error) {
	return SearchHits(resp, 0)
}

// SearchHits returns the hits of query vector i in wire rank order, each with
// its raw score. Scores are not normalized; their direction depends on the
// metric type.
func SearchHits(resp *milvuspb.SearchResults, i int) ([]vectordb.SearchResult, error) {
	view, err := newSearchView(resp)
	if err != nil {
		return nil, err
	}
	return view.hits(i)
}

// ParseAllSearchResults returns one hit list per query vector, in query order.
func ParseAllSearchResults(resp *milvuspb.SearchResults) ([][]vectordb.SearchResult, error) {
	view, err := newSearchView(resp)
	if err != nil {
		return nil, err
	}
	out := make([][]vectordb.SearchResult, len(view.offsets))
	for i := range out {
		hits, err := view.hits(i)
		if err != nil {
			return nil, err
		}
		out[i] = hits
	}
	return out, nil
}

// searchView is a decoded search response. Hits of all queries are stored
// back to back; offsets[i] and topks[i] delimit query i.
type searchView struct {
	collection string
	ids        []any
	scores     []float32
	columns    []column
	offsets    []int
	topks      []int
}

func newSearchView(resp *milvuspb.SearchResults) (*searchView, error) {
	if resp == nil {
		return nil, decodeErrorf("nil search results")
	}
	data := resp.GetResults()
	view := &searchView{collection: resp.GetCollectionName()}
	if data == nil {
		return view, nil
	}

	ids, err := decodeIDs(data.GetIds())
	if err != nil {
		return nil, err
	}
	view.ids = ids
	view.scores = data.GetScores()
	total := len(view.ids)

	if len(view.scores) != total {
		return nil, decodeErrorf("search results have %d ids but %d scores", total, len(view.scores))
	}

	topks := data.GetTopks()
	if len(topks) == 0 && total > 0 {
		if data.GetNumQueries() > 1 {
			return nil, decodeErrorf("search results for %d queries carry no per-query counts", data.GetNumQueries())
		}
		topks = []int64{int64(total)}
	}

	offset := 0
	for q, k := range topks {
		if k < 0 {
			return nil, decodeErrorf("query %d has negative hit count %d", q, k)
		}
		view.offsets = append(view.offsets, offset)
		view.topks = append(view.topks, int(k))
		offset += int(k)
	}
	if offset != total {
		return nil, decodeErrorf("per-query hit counts sum to %d, results carry %d", offset, total)
	}

	columns, n, err := decodeColumns(data.GetFieldsData())
	if err != nil {
		return nil, err
	}
	if len(columns) > 0 && n != total {
		return nil, decodeErrorf("search output fields have %d rows, results carry %d hits", n, total)
	}
	view.columns = columns

	return view, nil
}

func (v *searchView) hits(q int) ([]vectordb.SearchResult, error) {
	if q < 0 || q >= len(v.offsets) {
		if q == 0 && len(v.offsets) == 0 {
			return []vectordb.SearchResult{}, nil
		}
		return nil, decodeErrorf("query %d out of range [0, %d)", q, len(v.offsets))
	}

	start, count := v.offsets[q], v.topks[q]
	out := make([]vectordb.SearchResult, count)
	for j := 0; j < count; j++ {
		at := start + j
		row, err := buildRow(v.columns, at)
		if err != nil {
			return nil, err
		}
		out[j] = vectordb.SearchResult{
			ID:             v.ids[at],
			Score:          v.scores[at],
			Fields:         row,
			CollectionName: v.collection,
		}
	}
	return out, nil
}

// decodeIDs returns primary keys as int64 or string values.
func decodeIDs(ids *schemapb.IDs) ([]any, error) {
	if ids == nil {
		return nil, nil
	}
	switch {
	case ids.GetIntId() != nil:
		data := ids.GetIntId().GetData()
		out := make([]any, len(data))
		for i, id := range data {
			out[i] = id
		}
		return out, nil
	case ids.GetStrId() != nil:
		data := ids.GetStrId().GetData()
		out := make([]any, len(data))
		for i, id := range data {
			out[i] = id
		}
		return out, nil
	case ids.GetIdField() == nil:
		return nil, nil
	}
	return nil, decodeErrorf("unsupported id field %T", ids.GetIdField())
}

// mutationResult converts a wire mutation result. count selects the counter
// matching the operation.
func mutationResult(resp *milvuspb.MutationResult, count func(*milvuspb.MutationResult) int64) (*vectordb.MutationResult, error) {
	if resp == nil {
		return nil, decodeErrorf("nil mutation result")
	}
	ids, err := decodeIDs(resp.GetIDs())
	if err != nil {
		return nil, err
	}
	return &vectordb.MutationResult{Count: count(resp), IDs: ids}, nil
}
