// Package vectordb defines the schema-agnostic request and result types
// shared by vector database adapters.
//
// # Overview
//
// Applications describe data-plane operations (insert, upsert, delete, query,
// get, search) by collection and field name only. Parameters the caller does
// not know up front, such as the vector field to search or the fields to
// return, may be left unset; an adapter fills them from the collection's live
// schema and index metadata before building the wire request.
//
//	┌──────────────────────────────────────────────┐
//	│              Application Layer               │
//	│   (uses vectordb.Service and its types)      │
//	└──────────────────────┬───────────────────────┘
//	                       ▼
//	┌──────────────────────────────────────────────┐
//	│         milvus.Client (orchestration)        │
//	│ describe → resolve → build → call → decode   │
//	└──────────────────────────────────────────────┘
//
// # Values
//
// Field values are a closed tagged union: every variant is a named type
// implementing [Value] (Bool, Int64, String, JSON, FloatVector, ...).
// Result rows are ordered [Row] values; Row.ToMap renders Go-native values.
//
//	row := map[string]vectordb.Value{
//	    "id":  vectordb.Int64(1),
//	    "emb": vectordb.FloatVector{0.1, 0.2},
//	}
//
// # Unset versus empty
//
// Optional slices and filters distinguish "unset" (nil) from "explicitly
// empty" (non-nil, zero length, or a pointer to ""). Defaults are applied only
// to unset parameters:
//
//	vectordb.QueryRequest{CollectionName: "docs", IDs: []any{1, 2, 3}}
//	// → filter "id in [1, 2, 3]", all schema fields returned
//
//	vectordb.QueryRequest{CollectionName: "docs", OutputFields: []string{}, Filter: vectordb.Expr("n > 3")}
//	// → filter kept, no output fields requested
//
// # Filters
//
// [FilterSet] offers a structured alternative to raw expressions:
//
//	vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("lang", "de")),
//	    vectordb.MustNot(vectordb.NewMatchAny("status", "draft", "deleted")),
//	)
//
// # Thread Safety
//
// All types are plain values. Requests are never modified by adapters, so a
// request may be reused as a template from several goroutines.
package vectordb
