package embedding

import (
	"context"

	"go.uber.org/fx"
)

// FXModule wires the embedding client into Fx. A Config must be provided.
var FXModule = fx.Module(
	"embedding",
	fx.Provide(NewClientWithDI),
	fx.Invoke(RegisterEmbeddingLifecycle),
)

// EmbeddingParams groups the dependencies needed to create a Client.
type EmbeddingParams struct {
	fx.In

	Config Config
}

// NewClientWithDI creates a Client using dependency injection.
func NewClientWithDI(params EmbeddingParams) (*Client, error) {
	return NewClient(params.Config)
}

// RegisterEmbeddingLifecycle closes the client on application shutdown.
func RegisterEmbeddingLifecycle(lc fx.Lifecycle, client *Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
}
