package milvus

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/milvus-io/milvus-proto/go-api/v2/commonpb"
	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"github.com/milvus-io/milvus-proto/go-api/v2/schemapb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"

	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
)

const embedEtcdConfig = `listen-client-urls: http://0.0.0.0:2379
advertise-client-urls: http://0.0.0.0:2379
quota-backend-bytes: 4294967296
auto-compaction-mode: revision
auto-compaction-retention: '1000'
`

// MilvusContainer represents a Milvus standalone container for testing
type MilvusContainer struct {
	testcontainers.Container
	Host string
	Port string
}

// setupMilvusContainer starts Milvus standalone with embedded etcd and local storage.
func setupMilvusContainer(ctx context.Context) (*MilvusContainer, error) {
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portBindings := nat.PortMap{
		"19530/tcp": []nat.PortBinding{{HostPort: strconv.Itoa(port)}},
	}

	req := testcontainers.ContainerRequest{
		Image: "milvusdb/milvus:v2.5.4",
		Cmd:   []string{"milvus", "run", "standalone"},
		Env: map[string]string{
			"ETCD_USE_EMBED":     "true",
			"ETCD_DATA_DIR":      "/var/lib/milvus/etcd",
			"ETCD_CONFIG_PATH":   "/milvus/configs/embedEtcd.yaml",
			"COMMON_STORAGETYPE": "local",
		},
		Files: []testcontainers.ContainerFile{{
			Reader:            strings.NewReader(embedEtcdConfig),
			ContainerFilePath: "/milvus/configs/embedEtcd.yaml",
			FileMode:          0o644,
		}},
		ExposedPorts: []string{"19530/tcp", "9091/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForHTTP("/healthz").WithPort("9091/tcp").WithStartupTimeout(3 * time.Minute),
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start milvus container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}
	mapped, err := c.MappedPort(ctx, "19530")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	return &MilvusContainer{Container: c, Host: host, Port: mapped.Port()}, nil
}

// getFreePort gets a free port from the OS
func getFreePort() (int, error) {
	addr, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = addr.Close() }()
	return addr.Addr().(*net.TCPAddr).Port, nil
}

// createDocsCollection creates, indexes and loads the docs collection
// through the raw gRPC API, since the client only covers the data plane.
func createDocsCollection(ctx context.Context, t *testing.T, api milvuspb.MilvusServiceClient, name string) {
	t.Helper()

	schema, err := proto.Marshal(&schemapb.CollectionSchema{
		Name:               name,
		EnableDynamicField: true,
		Fields: []*schemapb.FieldSchema{
			{FieldID: 100, Name: "id", DataType: schemapb.DataType_Int64, IsPrimaryKey: true},
			{FieldID: 101, Name: "title", DataType: schemapb.DataType_VarChar, TypeParams: []*commonpb.KeyValuePair{{Key: "max_length", Value: "64"}}},
			{FieldID: 102, Name: "emb", DataType: schemapb.DataType_FloatVector, TypeParams: []*commonpb.KeyValuePair{{Key: "dim", Value: "4"}}},
		},
	})
	require.NoError(t, err)

	status, err := api.CreateCollection(ctx, &milvuspb.CreateCollectionRequest{CollectionName: name, Schema: schema, ShardsNum: 1})
	require.NoError(t, err)
	require.NoError(t, checkStatus("create_collection", name, status))

	status, err = api.CreateIndex(ctx, &milvuspb.CreateIndexRequest{
		CollectionName: name,
		FieldName:      "emb",
		IndexName:      "emb_idx",
		ExtraParams: []*commonpb.KeyValuePair{
			{Key: "index_type", Value: "HNSW"},
			{Key: "metric_type", Value: "IP"},
			{Key: "params", Value: `{"M":8,"efConstruction":64}`},
		},
	})
	require.NoError(t, err)
	require.NoError(t, checkStatus("create_index", name, status))

	status, err = api.LoadCollection(ctx, &milvuspb.LoadCollectionRequest{CollectionName: name})
	require.NoError(t, err)
	require.NoError(t, checkStatus("load_collection", name, status))

	require.Eventually(t, func() bool {
		resp, err := api.GetLoadState(ctx, &milvuspb.GetLoadStateRequest{CollectionName: name})
		return err == nil && resp.GetState() == commonpb.LoadState_LoadStateLoaded
	}, time.Minute, 500*time.Millisecond)
}

func TestMilvusWithFXModule(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	mc, err := setupMilvusContainer(ctx)
	require.NoError(t, err)
	defer func() {
		if err := mc.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()
	t.Logf("Using Milvus on %s:%s", mc.Host, mc.Port)

	port, err := strconv.Atoi(mc.Port)
	require.NoError(t, err)

	var client *Client
	app := fxtest.New(t,
		fx.Provide(func() Config {
			return *FromEndpoint(mc.Host).
				WithPort(port).
				WithConsistencyLevel("strong").
				WithConnectTimeout(30 * time.Second)
		}),
		FXModule,
		fx.Populate(&client),
	)
	app.RequireStart()
	defer app.RequireStop()

	conn, err := grpc.NewClient(net.JoinHostPort(mc.Host, mc.Port), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	createDocsCollection(ctx, t, milvuspb.NewMilvusServiceClient(conn), "docs")

	rows := []map[string]vectordb.Value{
		{"id": vectordb.Int64(1), "title": vectordb.String("first"), "emb": vectordb.FloatVector{1, 0, 0, 0}, "lang": vectordb.String("en")},
		{"id": vectordb.Int64(2), "title": vectordb.String("second"), "emb": vectordb.FloatVector{0, 1, 0, 0}, "lang": vectordb.String("de")},
		{"id": vectordb.Int64(3), "title": vectordb.String("third"), "emb": vectordb.FloatVector{0, 0, 1, 0}},
	}

	t.Run("Insert", func(t *testing.T) {
		res, err := client.Insert(ctx, vectordb.InsertRequest{CollectionName: "docs", Rows: rows})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Count)
		assert.ElementsMatch(t, []any{int64(1), int64(2), int64(3)}, res.IDs)
	})

	t.Run("Count", func(t *testing.T) {
		n, err := client.Count(ctx, "docs", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("GetWithDynamicField", func(t *testing.T) {
		res, err := client.Get(ctx, vectordb.GetRequest{CollectionName: "docs", IDs: []any{1, 42}, OutputFields: []string{"title", "lang"}})
		require.NoError(t, err)
		require.Len(t, res.Rows, 1)
		title, _ := res.Rows[0].Get("title")
		assert.Equal(t, vectordb.String("first"), title)
		lang, ok := res.Rows[0].Get("lang")
		require.True(t, ok)
		assert.Equal(t, "en", lang.Interface())
	})

	t.Run("SearchDefaultsToIndexedField", func(t *testing.T) {
		hits, err := client.Search(ctx, vectordb.SearchRequest{
			CollectionName: "docs",
			Vectors:        []vectordb.Value{vectordb.FloatVector{0, 1, 0, 0}, vectordb.FloatVector{1, 0, 0, 0}},
			TopK:           2,
			OutputFields:   []string{"title"},
		})
		require.NoError(t, err)
		require.Len(t, hits, 2)
		require.NotEmpty(t, hits[0])
		assert.Equal(t, int64(2), hits[0][0].ID)
		assert.Equal(t, int64(1), hits[1][0].ID)
	})

	t.Run("SearchWithFilter", func(t *testing.T) {
		hits, err := client.Search(ctx, vectordb.SearchRequest{
			CollectionName: "docs",
			Vectors:        []vectordb.Value{vectordb.FloatVector{1, 1, 1, 0}},
			TopK:           3,
			Filters:        vectordb.NewFilterSet(vectordb.Must(vectordb.NewMatch("title", "third"))),
		})
		require.NoError(t, err)
		require.Len(t, hits[0], 1)
		assert.Equal(t, int64(3), hits[0][0].ID)
	})

	t.Run("DeleteByID", func(t *testing.T) {
		_, err := client.Delete(ctx, vectordb.DeleteRequest{CollectionName: "docs", IDs: []any{3}})
		require.NoError(t, err)

		n, err := client.Count(ctx, "docs", nil)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("UnknownCollection", func(t *testing.T) {
		_, err := client.Query(ctx, vectordb.QueryRequest{CollectionName: "nope"})
		assert.True(t, IsCollectionNotFoundError(err))
	})
}
