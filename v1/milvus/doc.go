// Package milvus adapts schema-agnostic vectordb requests to the Milvus v2
// gRPC protocol.
//
// The package has two layers. The adapter layer is pure and performs no I/O:
//
//   - ReadSchema interprets a describe-collection response (primary key,
//     vector fields, dynamic field).
//   - ReadIndex / IndexAt interpret a describe-index response; the index and
//     metric types are reported as absent when the server did not set them.
//   - Build*Request functions turn logical requests into wire requests,
//     filling omitted parameters from the schema: output fields default to
//     every field, the search field to the first vector field, and an id
//     list becomes a "pk in [...]" filter.
//   - ParseQueryResults / ParseSearchResults / SearchHits turn columnar wire
//     responses back into ordered rows and scored hits, including the
//     count(*) aggregate.
//
// The Client layer runs the describe calls, the adapters and the data call
// for every operation:
//
//	client, err := milvus.NewClient(*milvus.FromEndpoint("localhost"))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	hits, err := client.Search(ctx, vectordb.SearchRequest{
//	    CollectionName: "docs",
//	    Vectors:        []vectordb.Value{vectordb.FloatVector(embedding)},
//	    TopK:           10,
//	    Filters: vectordb.NewFilterSet(
//	        vectordb.Must(vectordb.NewMatch("lang", "en")),
//	    ),
//	})
//
// Errors
//
// Adapter errors wrap one of ErrSchema, ErrMetadata, ErrIndexNotConfigured,
// ErrInvalidRequest or ErrProtocolDecode and are raised before any data call.
// Non-success server statuses are returned as *StatusError; transport
// failures are wrapped with the operation name.
//
//	if milvus.IsIndexNotConfiguredError(err) {
//	    // build an index on the vector field first
//	}
//
// Fx
//
// FXModule provides *Client and vectordb.Service from a milvus.Config. A
// Logger and an observability.Observer are picked up when present.
//
// Thread Safety
//
// Client is safe for concurrent use. The adapter functions share no state.
package milvus
