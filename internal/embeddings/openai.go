package embeddings

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// openaiBatchLimit caps how many texts go into one embeddings API call.
// Ingestion batches are smaller than this, so a batch is usually a
// single call.
const openaiBatchLimit = 100

// OpenAIModel identifies a supported OpenAI embedding model.
type OpenAIModel string

const (
	ModelTextEmbedding3Small OpenAIModel = "text-embedding-3-small"
	ModelTextEmbedding3Large OpenAIModel = "text-embedding-3-large"
)

func (m OpenAIModel) dimensions() int {
	if m == ModelTextEmbedding3Large {
		return 3072
	}
	return 1536
}

// OpenAIEmbedder embeds commit chunks through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  OpenAIModel
}

func NewOpenAIEmbedder(apiKey string, model OpenAIModel) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (e *OpenAIEmbedder) Name() string    { return string(e.model) }
func (e *OpenAIEmbedder) Dimensions() int { return e.model.dimensions() }

// Embed returns one vector per text, in input order, splitting oversized
// inputs across multiple API calls.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += openaiBatchLimit {
		batch := texts[start:min(start+openaiBatchLimit, len(texts))]

		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: batch,
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embed: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("openai embed: got %d vectors for %d inputs", len(resp.Data), len(batch))
		}
		for _, d := range resp.Data {
			vectors = append(vectors, d.Embedding)
		}
	}

	return vectors, nil
}
