package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// =============================================================================
// REMOTE (OpenAI-shaped HTTP) EMBEDDING ENGINE
// =============================================================================

// remoteBatchSize is the maximum number of texts sent in a single remote
// embedding request. Not every OpenAI-compatible endpoint enforces a limit,
// but chunking at a conservative size keeps every deployment (Ollama's
// /v1/embeddings shim included) within bounds.
const remoteBatchSize = 50

// RemoteEngine generates embeddings by POSTing to any OpenAI-compatible
// /v1/embeddings endpoint: Ollama, OpenAI itself, LiteLLM, vLLM, or anything
// else that speaks the same {model, input} -> {data: [{embedding, index}]}
// shape.
type RemoteEngine struct {
	url        string
	model      string
	apiKey     string
	dimensions int
	client     *http.Client
}

// NewRemoteEngine creates a new remote embedding engine. dimensions is the
// expected output dimensionality; a response whose vectors don't match it
// fails the batch rather than silently propagating a dimension that will
// break cosine similarity and sqlite-vec storage downstream.
func NewRemoteEngine(url, model, apiKey string, dimensions int) (*RemoteEngine, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "NewRemoteEngine")
	defer timer.Stop()

	if url == "" {
		return nil, fmt.Errorf("remote embedding URL is required")
	}
	if model == "" {
		model = "nomic-embed-text"
		logging.EmbeddingDebug("Remote model defaulted to: %s", model)
	}
	if dimensions <= 0 {
		dimensions = 768
		logging.EmbeddingDebug("Remote dimensions defaulted to: %d", dimensions)
	}

	logging.Embedding("Creating remote embedding engine: url=%s, model=%s, dimensions=%d", url, model, dimensions)

	return &RemoteEngine{
		url:        url,
		model:      model,
		apiKey:     apiKey,
		dimensions: dimensions,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

type remoteEmbedRequest struct {
	Model string      `json:"model"`
	Input interface{} `json:"input"`
}

type remoteEmbedResponse struct {
	Data  []remoteEmbedDatum `json:"data"`
	Model string             `json:"model,omitempty"`
}

type remoteEmbedDatum struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type remoteErrorResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type,omitempty"`
	} `json:"error"`
}

// requestEmbeddings sends one POST and returns the embeddings sorted by the
// index field and validated against the configured dimensionality.
func (e *RemoteEngine) requestEmbeddings(ctx context.Context, input interface{}) ([][]float32, error) {
	body, err := json.Marshal(remoteEmbedRequest{Model: e.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	apiStart := time.Now()
	resp, err := e.client.Do(httpReq)
	apiLatency := time.Since(apiStart)
	if err != nil {
		logging.Get(logging.CategoryEmbedding).Error("Remote.embed: request failed after %v: %v", apiLatency, err)
		return nil, fmt.Errorf("embedding API request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp remoteErrorResponse
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Error != nil {
			return nil, fmt.Errorf("embedding API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("embedding API returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result remoteEmbedResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	sort.Slice(result.Data, func(i, j int) bool { return result.Data[i].Index < result.Data[j].Index })

	embeddings := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		if len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("embedding dimension mismatch at index %d: expected %d, got %d (model: %s)",
				d.Index, e.dimensions, len(d.Embedding), e.model)
		}
		embeddings[i] = d.Embedding
	}

	logging.EmbeddingDebug("Remote.embed: received %d embeddings in %v", len(embeddings), apiLatency)
	return embeddings, nil
}

// Embed generates an embedding for a single text.
func (e *RemoteEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "Remote.Embed")
	defer timer.Stop()

	embeddings, err := e.requestEmbeddings(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding API returned no embeddings")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving order.
// Requests are chunked at remoteBatchSize since not every OpenAI-compatible
// endpoint accepts an unbounded batch.
func (e *RemoteEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "Remote.EmbedBatch")
	defer timer.Stop()

	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += remoteBatchSize {
		end := start + remoteBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk := texts[start:end]

		embeddings, err := e.requestEmbeddings(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d failed: %w", start, end-1, err)
		}
		all = append(all, embeddings...)
	}

	logging.Embedding("Remote.EmbedBatch: completed %d texts in %d-sized chunks", len(texts), remoteBatchSize)
	return all, nil
}

// Dimensions returns the configured expected dimensionality.
func (e *RemoteEngine) Dimensions() int {
	return e.dimensions
}

// Name returns the engine name.
func (e *RemoteEngine) Name() string {
	return fmt.Sprintf("remote:%s", e.model)
}
