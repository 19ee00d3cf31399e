package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{Endpoint: srv.URL + "/", Token: "secret", Model: "mini"})
	require.NoError(t, err)
	return c
}

func TestEmbed(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req embeddingsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mini", req.Model)
		assert.Equal(t, []string{"a", "b"}, req.Input)

		// Out of order; results are placed by index.
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0.3,0.4]},{"index":0,"embedding":[0.1,0.2]}]}`))
	})

	got, err := c.Embed(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, got)
}

func TestEmbedErrors(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})
	_, err := c.Embed(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 503")
	assert.Contains(t, err.Error(), "model overloaded")

	_, err = c.Embed(context.Background())
	assert.Error(t, err)

	short := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	})
	_, err = short.Embed(context.Background(), "a", "b")
	assert.Error(t, err)

	dup := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]},{"index":0,"embedding":[2]}]}`))
	})
	_, err = dup.Embed(context.Background(), "a", "b")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	_, err := NewClient(Config{Model: "mini"})
	assert.Error(t, err)
	_, err = NewClient(Config{Endpoint: "http://localhost"})
	assert.Error(t, err)
}

func TestFXModule(t *testing.T) {
	var c *Client
	app := fxtest.New(t,
		FXModule,
		fx.Supply(Config{Endpoint: "http://localhost", Model: "mini"}),
		fx.Populate(&c),
	)
	app.RequireStart()
	assert.Equal(t, DefaultHTTPTimeout, c.httpClient.Timeout)
	app.RequireStop()
}
