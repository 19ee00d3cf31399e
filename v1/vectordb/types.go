package vectordb

// ConsistencyLevel selects the read consistency of a query or search.
// The zero value leaves the choice to the collection default.
type ConsistencyLevel int

const (
	ConsistencyDefault ConsistencyLevel = iota
	ConsistencyStrong
	ConsistencySession
	ConsistencyBounded
	ConsistencyEventually
)

// ── Mutations ────────────────────────────────────────────────────────────────

// InsertRequest adds rows to a collection. Each row maps field name to value;
// the adapter lays the rows out column-wise in schema field order.
type InsertRequest struct {
	DBName         string
	CollectionName string
	PartitionName  string
	Rows           []map[string]Value
}

// UpsertRequest inserts rows or replaces rows with the same primary key.
type UpsertRequest struct {
	DBName         string
	CollectionName string
	PartitionName  string
	Rows           []map[string]Value
}

// DeleteRequest removes rows matching a filter or an id list.
//
// Filter has precedence over Filters, and both over IDs. A request with
// none of them is rejected.
type DeleteRequest struct {
	DBName         string
	CollectionName string
	PartitionName  string

	// Filter is a raw boolean expression. nil means unset.
	Filter *string

	// Filters is a structured filter rendered into an expression.
	Filters *FilterSet

	// IDs are primary key values (all integers or all strings).
	// nil means unset.
	IDs []any
}

// MutationResult reports the outcome of an insert, upsert or delete.
type MutationResult struct {
	// Count is the number of inserted, upserted or deleted rows.
	Count int64

	// IDs are the primary keys of the affected rows (int64 or string),
	// when the server returns them.
	IDs []any
}

// ── Reads ────────────────────────────────────────────────────────────────────

// QueryRequest retrieves rows by filter expression.
//
// Unset optional parameters are resolved against the collection schema:
//   - OutputFields nil → every schema field. An empty, non-nil slice is kept.
//   - Filter nil and Filters nil → "pk in [IDs...]" when IDs is non-nil.
type QueryRequest struct {
	DBName           string
	CollectionName   string
	PartitionNames   []string
	OutputFields     []string
	Filter           *string
	Filters          *FilterSet
	IDs              []any
	Limit            int64
	Offset           int64
	IgnoreGrowing    bool
	ConsistencyLevel ConsistencyLevel
}

// GetRequest fetches rows by primary key. It is executed as a query.
type GetRequest struct {
	DBName         string
	CollectionName string
	PartitionNames []string
	OutputFields   []string
	IDs            []any
}

// AggregateResult is the single-row result of a count(*) query.
type AggregateResult struct {
	Count int64
}

// QueryResult holds either ordered rows or, for count(*) queries, the aggregate.
type QueryResult struct {
	Rows      []Row
	Aggregate *AggregateResult
}

// IsAggregate reports whether the result is a count aggregate.
func (r QueryResult) IsAggregate() bool { return r.Aggregate != nil }

// GetResult holds the rows found by a GetRequest.
type GetResult struct {
	Rows []Row
}

// SearchRequest represents a similarity search for one or more query vectors.
//
// Unset optional parameters are resolved against the collection schema:
//   - AnnsField nil → the first vector field of the collection.
//   - OutputFields nil → every schema field.
//
// The metric type always comes from the index built on the resolved field.
type SearchRequest struct {
	DBName         string
	CollectionName string
	PartitionNames []string

	// Vectors are the query vectors; all must be of the same vector kind.
	Vectors []Value

	// TopK is the maximum number of hits per query vector.
	TopK int

	// AnnsField is the vector field to search. Nil means unset.
	AnnsField *string

	OutputFields []string
	Filter       *string
	Filters      *FilterSet

	// Params are index-specific search parameters, e.g. {"nprobe": 16} or {"ef": 64}.
	Params map[string]any

	Offset int64

	// RoundDecimal rounds scores to the given number of decimals; nil keeps
	// full precision.
	RoundDecimal *int

	GroupByField     string
	IgnoreGrowing    bool
	ConsistencyLevel ConsistencyLevel
}

// SearchResult is a single hit with its raw similarity score.
// Score direction depends on the metric type and is not normalized.
type SearchResult struct {
	// ID is the primary key of the hit (int64 or string).
	ID any `json:"id"`

	// Score is the raw distance or similarity reported by the server.
	Score float32 `json:"score"`

	// Fields contains the requested output fields in wire order.
	Fields Row `json:"-"`

	// CollectionName identifies which collection this result came from.
	CollectionName string `json:"collectionName,omitempty"`
}
