// Package embedding computes dense text embeddings through an
// OpenAI-compatible inference service ("POST <endpoint>/embeddings").
//
// milvusctl uses it to search by text: each query text is embedded and the
// resulting vectors are passed to the Milvus search unchanged. The model must
// therefore produce vectors of the searched field's dimension.
//
//	client, err := embedding.NewClient(embedding.Config{
//		Endpoint: "https://inference.internal/v1",
//		Token:    token,
//		Model:    "text-embedding-3-small",
//	})
//	if err != nil {
//		return err
//	}
//	vectors, err := client.Embed(ctx, "how do vector indexes work?")
//
// # Configuration
//
//	EMBEDDING_ENDPOINT=https://inference.internal/v1
//	EMBEDDING_SERVICE_TOKEN=...
//	EMBEDDING_MODEL=text-embedding-3-small
//	EMBEDDING_HTTP_TIMEOUT=30s
package embedding
