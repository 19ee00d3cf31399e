package milvus

import (
	"context"
	"testing"

	"github.com/milvus-io/milvus-proto/go-api/v2/milvuspb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/milvus-adapter/v1/observability"
	"github.com/Aleph-Alpha/milvus-adapter/v1/vectordb"
)

func TestFXModule_ProvidesClientAndService(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := NewMockService(ctrl)
	obs := &TestObserver{}
	log := &recordingLogger{}

	var (
		client  *Client
		service vectordb.Service
	)
	app := fxtest.New(t,
		FXModule,
		fx.Provide(
			func() Config { return *DefaultConfig().WithHealthCheck(false) },
			func() Service { return api },
			func() Logger { return log },
			func() observability.Observer { return obs },
		),
		fx.Populate(&client, &service),
	)
	app.RequireStart()

	require.NotNil(t, client)
	assert.Same(t, client, service)
	assert.Equal(t, obs, client.observer)
	assert.Equal(t, log, client.logger)

	api.EXPECT().HasCollection(gomock.Any(), gomock.Any()).
		Return(&milvuspb.BoolResponse{Status: success(), Value: false}, nil)
	_, err := service.Query(context.Background(), vectordb.QueryRequest{CollectionName: "docs"})
	assert.True(t, IsCollectionNotFoundError(err))

	app.RequireStop()
	_, err = client.Query(context.Background(), vectordb.QueryRequest{CollectionName: "docs"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewClientWithDI_RequiresEndpointWithoutService(t *testing.T) {
	_, err := NewClientWithDI(MilvusParams{Config: Config{}})
	assert.Error(t, err)
}
