package vectordb

import "context"

// Service is the schema-agnostic data-plane interface of a vector database.
// Callers describe what they want by field name; the implementation resolves
// omitted parameters (vector field, output fields, id filters) against the
// live collection schema.
//
// Example usage:
//
//	func NewSearchService(db vectordb.Service) *SearchService {
//	    return &SearchService{db: db}
//	}
//
//	// Works with any implementation, e.g. *milvus.Client.
type Service interface {
	// Insert adds rows to a collection.
	Insert(ctx context.Context, req InsertRequest) (*MutationResult, error)

	// Upsert inserts rows or replaces rows with the same primary key.
	Upsert(ctx context.Context, req UpsertRequest) (*MutationResult, error)

	// Delete removes rows by filter or primary key.
	Delete(ctx context.Context, req DeleteRequest) (*MutationResult, error)

	// Query returns rows matching a filter, or a count aggregate.
	Query(ctx context.Context, req QueryRequest) (*QueryResult, error)

	// Get returns rows by primary key.
	Get(ctx context.Context, req GetRequest) (*GetResult, error)

	// Search performs a similarity search and returns one hit list per
	// query vector, in query order.
	//
	// Example:
	//   hits, err := db.Search(ctx, vectordb.SearchRequest{
	//       CollectionName: "docs",
	//       Vectors:        []vectordb.Value{vectordb.FloatVector(vec)},
	//       TopK:           10,
	//   })
	Search(ctx context.Context, req SearchRequest) ([][]SearchResult, error)
}
