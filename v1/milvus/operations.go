package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
)

// operation carries the bookkeeping of one client call.
type operation struct {
	name       string
	collection string
	field      string
	size       int64
	metadata   map[string]interface{}
}

// run executes fn with the per-operation deadline, a client span, logging
// and observer notification.
func (c *Client) run(ctx context.Context, op *operation, fn func(ctx context.Context) error) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	ctx, span := c.tracer.Start(ctx, "milvus."+op.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "milvus"),
			attribute.String("db.operation", op.name),
			attribute.String("db.collection.name", op.collection),
		),
	)
	defer span.End()

	fields := map[string]interface{}{"operation": op.name, "collection": op.collection}
	c.logDebug("Milvus operation started", fields)

	start := time.Now()
	err := c.wait(ctx, op.name)
	if err == nil {
		err = fn(ctx)
	}
	duration := time.Since(start)

	if op.field != "" {
		span.SetAttributes(attribute.String("milvus.field", op.field))
	}
	span.SetAttributes(attribute.Int64("milvus.rows", op.size))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logError("Milvus operation failed", err, map[string]interface{}{
			"operation":   op.name,
			"collection":  op.collection,
			"duration_ms": duration.Milliseconds(),
		})
	}

	c.observeOperation(op.name, op.collection, op.field, duration, err, op.size, op.metadata)
	return err
}

// wait blocks until the rate limiter admits the operation.
func (c *Client) wait(ctx context.Context, operation string) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("[Milvus] %s rate limited: %w", operation, err)
	}
	return nil
}

func transportError(operation string, err error) error {
	return fmt.Errorf("[Milvus] %s failed: %w", operation, err)
}

func (c *Client) dbName(name string) string {
	if name != "" {
		return name
	}
	return c.cfg.DBName
}

func (c *Client) consistencyLevel(level vectordb.ConsistencyLevel) vectordb.ConsistencyLevel {
	if level != vectordb.ConsistencyDefault {
		return level
	}
	return c.consistency
}

// describeCollection fetches and interprets the schema of a collection.
func (c *Client) describeCollection(ctx context.Context, db, collection string) (*CollectionSchema, error) {
	has, err := c.api.HasCollection(ctx, &milvuspb.HasCollectionRequest{DbName: db, CollectionName: collection})
	if err != nil {
		return nil, transportError("has_collection", err)
	}
	if err := checkStatus("has_collection", collection, has.GetStatus()); err != nil {
		return nil, err
	}
	if !has.GetValue() {
		return nil, fmt.Errorf("%w: '%s'", ErrCollectionNotFound, collection)
	}

	resp, err := c.api.DescribeCollection(ctx, &milvuspb.DescribeCollectionRequest{DbName: db, CollectionName: collection})
	if err != nil {
		return nil, transportError("describe_collection", err)
	}
	if err := checkStatus("describe_collection", collection, resp.GetStatus()); err != nil {
		return nil, err
	}
	return ReadSchema(resp)
}

// describeIndex fetches the index built on field. A missing index is
// reported as ErrIndexNotConfigured.
func (c *Client) describeIndex(ctx context.Context, db, collection, field string) (IndexMetadata, error) {
	resp, err := c.api.DescribeIndex(ctx, &milvuspb.DescribeIndexRequest{DbName: db, CollectionName: collection, FieldName: field})
	if err != nil {
		return IndexMetadata{}, transportError("describe_index", err)
	}
	if resp.GetStatus().GetErrorCode() == commonpb.ErrorCode_IndexNotExist {
		return IndexMetadata{}, indexNotConfiguredf("no index on field '%s' of collection '%s'", field, collection)
	}
	if err := checkStatus("describe_index", collection, resp.GetStatus()); err != nil {
		return IndexMetadata{}, err
	}

	for i := 0; i < IndexCount(resp); i++ {
		meta, err := IndexAt(resp, i)
		if err != nil {
			return IndexMetadata{}, err
		}
		if meta.FieldName == field {
			return meta, nil
		}
	}
	return ReadIndex(resp)
}

// ── Mutations ────────────────────────────────────────────────────────────────

// Insert adds rows to a collection. Columns are laid out in schema order;
// see BuildInsertRequest for the row rules.
func (c *Client) Insert(ctx context.Context, req vectordb.InsertRequest) (*vectordb.MutationResult, error) {
	op := &operation{name: "insert", collection: req.CollectionName}
	var out *vectordb.MutationResult

	err := c.run(ctx, op, func(ctx context.Context) error {
		if err := requireCollection(req.CollectionName); err != nil {
			return err
		}
		req.DBName = c.dbName(req.DBName)
		schema, err := c.describeCollection(ctx, req.DBName, req.CollectionName)
		if err != nil {
			return err
		}
		wire, err := BuildInsertRequest(req, schema)
		if err != nil {
			return err
		}

		resp, err := c.api.Insert(ctx, wire)
		if err != nil {
			return transportError("insert", err)
		}
		if err := checkStatus("insert", req.CollectionName, resp.GetStatus()); err != nil {
			return err
		}
		out, err = mutationResult(resp, (*milvuspb.MutationResult).GetInsertCnt)
		if err != nil {
			return err
		}
		op.size = out.Count
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert inserts rows or replaces the rows with the same primary key.
func (c *Client) Upsert(ctx context.Context, req vectordb.UpsertRequest) (*vectordb.MutationResult, error) {
	op := &operation{name: "upsert", collection: req.CollectionName}
	var out *vectordb.MutationResult

	err := c.run(ctx, op, func(ctx context.Context) error {
		if err := requireCollection(req.CollectionName); err != nil {
			return err
		}
		req.DBName = c.dbName(req.DBName)
		schema, err := c.describeCollection(ctx, req.DBName, req.CollectionName)
		if err != nil {
			return err
		}
		wire, err := BuildUpsertRequest(req, schema)
		if err != nil {
			return err
		}

		resp, err := c.api.Upsert(ctx, wire)
		if err != nil {
			return transportError("upsert", err)
		}
		if err := checkStatus("upsert", req.CollectionName, resp.GetStatus()); err != nil {
			return err
		}
		out, err = mutationResult(resp, (*milvuspb.MutationResult).GetUpsertCnt)
		if err != nil {
			return err
		}
		op.size = out.Count
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the rows matching the request filter or id list.
func (c *Client) Delete(ctx context.Context, req vectordb.DeleteRequest) (*vectordb.MutationResult, error) {
	op := &operation{name: "delete", collection: req.CollectionName}
	var out *vectordb.MutationResult

	err := c.run(ctx, op, func(ctx context.Context) error {
		if err := requireCollection(req.CollectionName); err != nil {
			return err
		}
		req.DBName = c.dbName(req.DBName)
		schema, err := c.describeCollection(ctx, req.DBName, req.CollectionName)
		if err != nil {
			return err
		}
		wire, err := BuildDeleteRequest(req, schema)
		if err != nil {
			return err
		}
		op.metadata = map[string]interface{}{"expr": describeExpr(wire.GetExpr())}

		resp, err := c.api.Delete(ctx, wire)
		if err != nil {
			return transportError("delete", err)
		}
		if err := checkStatus("delete", req.CollectionName, resp.GetStatus()); err != nil {
			return err
		}
		out, err = mutationResult(resp, (*milvuspb.MutationResult).GetDeleteCnt)
		if err != nil {
			return err
		}
		op.size = out.Count
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

// Query returns the rows matching the request, or the aggregate of a
// count(*) query.
func (c *Client) Query(ctx context.Context, req vectordb.QueryRequest) (*vectordb.QueryResult, error) {
	op := &operation{name: "query", collection: req.CollectionName}
	var out *vectordb.QueryResult

	err := c.run(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = c.query(ctx, op, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns rows by primary key. It runs as a query filtered on the ids;
// ids that do not exist are simply absent from the result.
func (c *Client) Get(ctx context.Context, req vectordb.GetRequest) (*vectordb.GetResult, error) {
	op := &operation{name: "get", collection: req.CollectionName}
	var out *vectordb.GetResult

	err := c.run(ctx, op, func(ctx context.Context) error {
		res, err := c.query(ctx, op, GetAsQuery(req))
		if err != nil {
			return err
		}
		out = &vectordb.GetResult{Rows: res.Rows}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of rows matching filter; a nil filter counts the
// whole collection.
func (c *Client) Count(ctx context.Context, collection string, filter *string) (int64, error) {
	op := &operation{name: "count", collection: collection}
	var count int64

	err := c.run(ctx, op, func(ctx context.Context) error {
		res, err := c.query(ctx, op, CountQuery(collection, filter))
		if err != nil {
			return err
		}
		if !res.IsAggregate() {
			return decodeErrorf("count query on '%s' returned no aggregate", collection)
		}
		count = res.Aggregate.Count
		op.size = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (c *Client) query(ctx context.Context, op *operation, req vectordb.QueryRequest) (*vectordb.QueryResult, error) {
	if err := requireCollection(req.CollectionName); err != nil {
		return nil, err
	}
	req.DBName = c.dbName(req.DBName)
	req.ConsistencyLevel = c.consistencyLevel(req.ConsistencyLevel)

	schema, err := c.describeCollection(ctx, req.DBName, req.CollectionName)
	if err != nil {
		return nil, err
	}
	wire, err := BuildQueryRequest(req, schema)
	if err != nil {
		return nil, err
	}
	op.metadata = map[string]interface{}{"expr": describeExpr(wire.GetExpr())}

	resp, err := c.api.Query(ctx, wire)
	if err != nil {
		return nil, transportError("query", err)
	}
	if err := checkStatus("query", req.CollectionName, resp.GetStatus()); err != nil {
		return nil, err
	}
	if err := CheckOutputFields(wire.GetOutputFields(), resp.GetFieldsData(), schema); err != nil {
		return nil, err
	}
	res, err := ParseQueryResults(resp)
	if err != nil {
		return nil, err
	}
	op.size = int64(len(res.Rows))
	return res, nil
}

// Search ──────────────────────────────────────────────────────────────
// Search
// ──────────────────────────────────────────────────────────────
//
// Search runs a similarity search and returns one hit list per query
// vector, in query order. The searched field defaults to the first vector
// field of the collection and the metric type is always taken from the
// index on that field; a field without a configured metric yields
// ErrIndexNotConfigured before the search is sent.
func (c *Client) Search(ctx context.Context, req vectordb.SearchRequest) ([][]vectordb.SearchResult, error) {
	op := &operation{name: "search", collection: req.CollectionName}
	var out [][]vectordb.SearchResult

	err := c.run(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = c.search(ctx, op, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, op *operation, req vectordb.SearchRequest) ([][]vectordb.SearchResult, error) {
	if err := requireCollection(req.CollectionName); err != nil {
		return nil, err
	}
	req.DBName = c.dbName(req.DBName)
	req.ConsistencyLevel = c.consistencyLevel(req.ConsistencyLevel)

	schema, err := c.describeCollection(ctx, req.DBName, req.CollectionName)
	if err != nil {
		return nil, err
	}
	resolved, err := ResolveSearch(req, schema)
	if err != nil {
		return nil, err
	}
	op.field = resolved.Field.Name

	index, err := c.describeIndex(ctx, req.DBName, req.CollectionName, resolved.Field.Name)
	if err != nil {
		return nil, err
	}
	wire, err := BuildSearchRequest(resolved, index)
	if err != nil {
		return nil, err
	}
	metric, _ := index.MetricType()
	op.metadata = map[string]interface{}{"nq": len(req.Vectors), "top_k": req.TopK, "metric_type": metric}

	resp, err := c.api.Search(ctx, wire)
	if err != nil {
		return nil, transportError("search", err)
	}
	if err := checkStatus("search", req.CollectionName, resp.GetStatus()); err != nil {
		return nil, err
	}

	if err := CheckOutputFields(wire.GetOutputFields(), resp.GetResults().GetFieldsData(), schema); err != nil {
		return nil, err
	}
	all, err := ParseAllSearchResults(resp)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		all = make([][]vectordb.SearchResult, len(req.Vectors))
		for i := range all {
			all[i] = []vectordb.SearchResult{}
		}
	}

	var hits int64
	for _, h := range all {
		hits += int64(len(h))
	}
	op.size = hits
	return all, nil
}

// SearchBatch runs several searches concurrently, at most
// Config.SearchConcurrency at a time. Results are returned in request order.
// The first failure cancels the searches still running and is returned.
func (c *Client) SearchBatch(ctx context.Context, reqs []vectordb.SearchRequest) ([][][]vectordb.SearchResult, error) {
	out := make([][][]vectordb.SearchResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.SearchConcurrency)

	for i := range reqs {
		g.Go(func() error {
			hits, err := c.Search(gctx, reqs[i])
			if err != nil {
				return fmt.Errorf("[Milvus] search %d of batch: %w", i, err)
			}
			out[i] = hits
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
