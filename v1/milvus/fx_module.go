package milvus

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/milvus-adapter/v1/observability"
	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
)

// FXModule is an fx.Module that provides and configures the Milvus client.
//
// The module:
// 1. Provides the *Client and exposes it as vectordb.Service
// 2. Invokes the lifecycle registration to close the connection on shutdown
//
// Usage:
//
//	app := fx.New(
//	    milvus.FXModule,
//	    fx.Provide(func() milvus.Config { return *milvus.FromEndpoint("localhost") }),
//	)
var FXModule = fx.Module("milvus",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			func(c *Client) vectordb.Service { return c },
			fx.As(new(vectordb.Service)),
		),
	),
	fx.Invoke(RegisterMilvusLifecycle),
)

// MilvusParams groups the dependencies needed to create a Milvus client.
type MilvusParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`

	// Service replaces the gRPC connection, typically with a mock in tests.
	Service Service `optional:"true"`
}

// NewClientWithDI creates a Milvus client using dependency injection.
// The optional logger and observer are attached to the client; when a
// Service is provided no connection is dialed.
func NewClientWithDI(params MilvusParams) (*Client, error) {
	if params.Logger != nil {
		params.Config.Logger = params.Logger
	}

	var (
		client *Client
		err    error
	)
	if params.Service != nil {
		client, err = NewClientWithService(params.Service, params.Config)
	} else {
		client, err = NewClient(params.Config)
	}
	if err != nil {
		return nil, err
	}

	if params.Observer != nil {
		client.WithObserver(params.Observer)
	}
	return client, nil
}

// MilvusLifecycleParams groups the dependencies needed for lifecycle management.
type MilvusLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
}

// RegisterMilvusLifecycle closes the client when the application stops.
func RegisterMilvusLifecycle(params MilvusLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return params.Client.Close()
		},
	})
}
