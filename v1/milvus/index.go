package milvus

import (
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
)

// Index parameter keys recognized by the reader. Matching is case-sensitive.
const (
	paramIndexType  = "index_type"
	paramMetricType = "metric_type"
)

// IndexMetadata describes one index built on a collection field.
// The index and metric types are absent, not defaulted, when the wire
// parameters do not carry them.
type IndexMetadata struct {
	IndexName string
	FieldName string

	indexType     string
	hasIndexType  bool
	metricType    string
	hasMetricType bool
	params        map[string]string
}

// IndexType returns the index type, e.g. "HNSW", and whether it was present.
func (m IndexMetadata) IndexType() (string, bool) { return m.indexType, m.hasIndexType }

// MetricType returns the metric type, e.g. "IP" or "L2", and whether it was present.
func (m IndexMetadata) MetricType() (string, bool) { return m.metricType, m.hasMetricType }

// Param returns any raw index parameter by key.
func (m IndexMetadata) Param(key string) (string, bool) {
	v, ok := m.params[key]
	return v, ok
}

// IndexCount returns the number of index descriptions in a describe-index response.
func IndexCount(resp *milvuspb.DescribeIndexResponse) int {
	return len(resp.GetIndexDescriptions())
}

// ReadIndex returns the first index description of a describe-index response.
// Responses listing several indexes for one field are reduced to the first;
// use IndexAt to reach the others.
func ReadIndex(resp *milvuspb.DescribeIndexResponse) (IndexMetadata, error) {
	return IndexAt(resp, 0)
}

// IndexAt returns the i-th index description of a describe-index response.
// An empty response or an out-of-range index yields ErrMetadata.
func IndexAt(resp *milvuspb.DescribeIndexResponse, i int) (IndexMetadata, error) {
	descs := resp.GetIndexDescriptions()
	if len(descs) == 0 {
		return IndexMetadata{}, metadataErrorf("describe index response has no index description")
	}
	if i < 0 || i >= len(descs) {
		return IndexMetadata{}, metadataErrorf("index description %d out of range [0, %d)", i, len(descs))
	}
	desc := descs[i]
	if desc == nil {
		return IndexMetadata{}, metadataErrorf("index description %d is nil", i)
	}

	m := IndexMetadata{
		IndexName: desc.GetIndexName(),
		FieldName: desc.GetFieldName(),
		params:    make(map[string]string, len(desc.GetParams())),
	}
	for _, p := range desc.GetParams() {
		m.params[p.GetKey()] = p.GetValue()
		switch p.GetKey() {
		case paramIndexType:
			m.indexType, m.hasIndexType = p.GetValue(), true
		case paramMetricType:
			m.metricType, m.hasMetricType = p.GetValue(), true
		}
	}
	return m, nil
}
