package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Aleph-Alpha/milvus-adapter/v1/embedding"
	"github.com/Aleph-Alpha/milvus-adapter/v1/milvus"
	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
)

// store is the part of *milvus.Client the commands use.
type store interface {
	vectordb.Service
	Count(ctx context.Context, collection string, filter *string) (int64, error)
	HealthCheck(ctx context.Context) error
}

var _ store = (*milvus.Client)(nil)

// embedder turns query text into vectors. It is nil unless an embedding
// endpoint is configured.
type embedder interface {
	Embed(ctx context.Context, texts ...string) ([][]float32, error)
}

var _ embedder = (*embedding.Client)(nil)

type deps struct {
	db    store
	embed embedder
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, d deps, args []string, out io.Writer) error
}

var commands = []command{
	{"health", "check that the server is reachable and healthy", runHealth},
	{"count", "count rows, optionally matching --filter", runCount},
	{"get", "fetch rows by --ids", runGet},
	{"query", "return rows matching --filter or --ids", runQuery},
	{"search", "similarity search for one or more --vector or --text", runSearch},
	{"delete", "delete rows matching --filter or --ids", runDelete},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

var errUsage = errors.New("usage error")

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// readFlags holds the flags shared by the read and delete commands.
type readFlags struct {
	collection string
	partitions []string
	filter     string
	ids        []string
	output     []string
}

func newFlagSet(name string, rf *readFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&rf.collection, "collection", "c", "", "collection name (required)")
	fs.StringSliceVar(&rf.partitions, "partition", nil, "partition names")
	fs.StringVarP(&rf.filter, "filter", "f", "", "boolean filter expression")
	fs.StringSliceVar(&rf.ids, "ids", nil, "primary keys, integers or strings")
	fs.StringSliceVarP(&rf.output, "output", "o", nil, "output fields (default: all)")
	return fs
}

func (rf *readFlags) parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usagef("%v", err)
	}
	if rf.collection == "" {
		return usagef("--collection is required")
	}
	return nil
}

func (rf *readFlags) filterExpr() *string {
	if rf.filter == "" {
		return nil
	}
	return vectordb.Expr(rf.filter)
}

func (rf *readFlags) outputFields(fs *pflag.FlagSet) []string {
	if !fs.Changed("output") {
		return nil
	}
	return rf.output
}

func (rf *readFlags) primaryKeys(fs *pflag.FlagSet) []any {
	if !fs.Changed("ids") {
		return nil
	}
	return parseIDs(rf.ids)
}

// parseIDs returns int64 keys when every id is an integer and string keys
// otherwise.
func parseIDs(raw []string) []any {
	ints := make([]any, 0, len(raw))
	for _, r := range raw {
		n, err := strconv.ParseInt(strings.TrimSpace(r), 10, 64)
		if err != nil {
			strs := make([]any, len(raw))
			for i, s := range raw {
				strs[i] = strings.TrimSpace(s)
			}
			return strs
		}
		ints = append(ints, n)
	}
	return ints
}

// parseVector parses a comma separated list of floats.
func parseVector(raw string) (vectordb.FloatVector, error) {
	parts := strings.Split(raw, ",")
	vec := make(vectordb.FloatVector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, usagef("invalid vector component %q", p)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func rowMaps(rows []vectordb.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = r.ToMap()
	}
	return out
}

func runHealth(ctx context.Context, d deps, _ []string, out io.Writer) error {
	if err := d.db.HealthCheck(ctx); err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"healthy": true})
}

func runCount(ctx context.Context, d deps, args []string, out io.Writer) error {
	var rf readFlags
	fs := newFlagSet("count", &rf)
	if err := rf.parse(fs, args); err != nil {
		return err
	}

	n, err := d.db.Count(ctx, rf.collection, rf.filterExpr())
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"count": n})
}

func runGet(ctx context.Context, d deps, args []string, out io.Writer) error {
	var rf readFlags
	fs := newFlagSet("get", &rf)
	if err := rf.parse(fs, args); err != nil {
		return err
	}
	if !fs.Changed("ids") {
		return usagef("--ids is required")
	}

	res, err := d.db.Get(ctx, vectordb.GetRequest{
		CollectionName: rf.collection,
		PartitionNames: rf.partitions,
		OutputFields:   rf.outputFields(fs),
		IDs:            rf.primaryKeys(fs),
	})
	if err != nil {
		return err
	}
	return writeJSON(out, rowMaps(res.Rows))
}

func runQuery(ctx context.Context, d deps, args []string, out io.Writer) error {
	var (
		rf          readFlags
		limit       int64
		offset      int64
		consistency string
	)
	fs := newFlagSet("query", &rf)
	fs.Int64Var(&limit, "limit", 0, "maximum number of rows")
	fs.Int64Var(&offset, "offset", 0, "rows to skip")
	fs.StringVar(&consistency, "consistency", "", "consistency level (strong, session, bounded, eventually)")
	if err := rf.parse(fs, args); err != nil {
		return err
	}
	level, err := milvus.ParseConsistencyLevel(consistency)
	if err != nil {
		return usagef("%v", err)
	}

	res, err := d.db.Query(ctx, vectordb.QueryRequest{
		CollectionName:   rf.collection,
		PartitionNames:   rf.partitions,
		OutputFields:     rf.outputFields(fs),
		Filter:           rf.filterExpr(),
		IDs:              rf.primaryKeys(fs),
		Limit:            limit,
		Offset:           offset,
		ConsistencyLevel: level,
	})
	if err != nil {
		return err
	}
	if res.IsAggregate() {
		return writeJSON(out, map[string]any{"count": res.Aggregate.Count})
	}
	return writeJSON(out, rowMaps(res.Rows))
}

type hit struct {
	ID     any            `json:"id"`
	Score  float32        `json:"score"`
	Fields map[string]any `json:"fields,omitempty"`
}

func runSearch(ctx context.Context, d deps, args []string, out io.Writer) error {
	var (
		rf          readFlags
		vectors     []string
		texts       []string
		topK        int
		field       string
		params      string
		consistency string
	)
	fs := newFlagSet("search", &rf)
	fs.StringArrayVarP(&vectors, "vector", "v", nil, "query vector as comma separated floats, repeatable")
	fs.StringArrayVarP(&texts, "text", "t", nil, "query text to embed, repeatable")
	fs.IntVarP(&topK, "top-k", "k", 10, "hits per query vector")
	fs.StringVar(&field, "field", "", "vector field (default: first vector field)")
	fs.StringVar(&params, "params", "", `search params as JSON, e.g. '{"ef": 64}'`)
	fs.StringVar(&consistency, "consistency", "", "consistency level (strong, session, bounded, eventually)")
	if err := rf.parse(fs, args); err != nil {
		return err
	}
	if len(vectors) == 0 && len(texts) == 0 {
		return usagef("at least one --vector or --text is required")
	}
	if len(texts) > 0 && d.embed == nil {
		return usagef("--text requires an embedding endpoint")
	}
	level, err := milvus.ParseConsistencyLevel(consistency)
	if err != nil {
		return usagef("%v", err)
	}

	req := vectordb.SearchRequest{
		CollectionName:   rf.collection,
		PartitionNames:   rf.partitions,
		TopK:             topK,
		OutputFields:     rf.outputFields(fs),
		Filter:           rf.filterExpr(),
		ConsistencyLevel: level,
	}
	if fs.Changed("field") {
		req.AnnsField = &field
	}
	for _, raw := range vectors {
		vec, err := parseVector(raw)
		if err != nil {
			return err
		}
		req.Vectors = append(req.Vectors, vec)
	}
	if len(texts) > 0 {
		embedded, err := d.embed.Embed(ctx, texts...)
		if err != nil {
			return err
		}
		for _, vec := range embedded {
			req.Vectors = append(req.Vectors, vectordb.FloatVector(vec))
		}
	}
	if params != "" {
		if err := json.Unmarshal([]byte(params), &req.Params); err != nil {
			return usagef("invalid --params: %v", err)
		}
	}

	results, err := d.db.Search(ctx, req)
	if err != nil {
		return err
	}

	hits := make([][]hit, len(results))
	for i, list := range results {
		hits[i] = make([]hit, len(list))
		for j, r := range list {
			h := hit{ID: r.ID, Score: r.Score}
			if r.Fields.Len() > 0 {
				h.Fields = r.Fields.ToMap()
			}
			hits[i][j] = h
		}
	}
	return writeJSON(out, hits)
}

func runDelete(ctx context.Context, d deps, args []string, out io.Writer) error {
	var rf readFlags
	fs := newFlagSet("delete", &rf)
	if err := rf.parse(fs, args); err != nil {
		return err
	}
	if rf.filter == "" && !fs.Changed("ids") {
		return usagef("--filter or --ids is required")
	}
	if len(rf.partitions) > 1 {
		return usagef("delete takes at most one --partition")
	}
	var partition string
	if len(rf.partitions) == 1 {
		partition = rf.partitions[0]
	}

	res, err := d.db.Delete(ctx, vectordb.DeleteRequest{
		CollectionName: rf.collection,
		PartitionName:  partition,
		Filter:         rf.filterExpr(),
		IDs:            rf.primaryKeys(fs),
	})
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{"deleted": res.Count})
}
