package milvus

import (
	"context"

	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"google.golang.org/grpc"
)

// Service is the subset of the Milvus gRPC service the client calls.
// *milvuspb.MilvusServiceClient satisfies it; tests substitute a mock.
//
//go:generate mockgen -source=service.go -destination=mock_service.go -package=milvus
type Service interface {
	HasCollection(ctx context.Context, in *milvuspb.HasCollectionRequest, opts ...grpc.CallOption) (*milvuspb.BoolResponse, error)
	DescribeCollection(ctx context.Context, in *milvuspb.DescribeCollectionRequest, opts ...grpc.CallOption) (*milvuspb.DescribeCollectionResponse, error)
	DescribeIndex(ctx context.Context, in *milvuspb.DescribeIndexRequest, opts ...grpc.CallOption) (*milvuspb.DescribeIndexResponse, error)
	Insert(ctx context.Context, in *milvuspb.InsertRequest, opts ...grpc.CallOption) (*milvuspb.MutationResult, error)
	Upsert(ctx context.Context, in *milvuspb.UpsertRequest, opts ...grpc.CallOption) (*milvuspb.MutationResult, error)
	Delete(ctx context.Context, in *milvuspb.DeleteRequest, opts ...grpc.CallOption) (*milvuspb.MutationResult, error)
	Query(ctx context.Context, in *milvuspb.QueryRequest, opts ...grpc.CallOption) (*milvuspb.QueryResults, error)
	Search(ctx context.Context, in *milvuspb.SearchRequest, opts ...grpc.CallOption) (*milvuspb.SearchResults, error)
	CheckHealth(ctx context.Context, in *milvuspb.CheckHealthRequest, opts ...grpc.CallOption) (*milvuspb.CheckHealthResponse, error)
}

var _ Service = milvuspb.MilvusServiceClient(nil)
