package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRemoteEngineEmbedSortsByIndexAndSendsBearerAuth(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth header, got %q", got)
		}
		var req remoteEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("expected model test-model, got %q", req.Model)
		}
		w.Header().Set("Content-Type", "application/json")
		// Returned out of order on purpose to exercise the index re-sort.
		w.Write([]byte(`{"data":[{"embedding":[0.2,0.2],"index":1},{"embedding":[0.1,0.1],"index":0}]}`))
	}))
	defer ts.Close()

	e, err := NewRemoteEngine(ts.URL, "test-model", "test-key", 2)
	if err != nil {
		t.Fatalf("NewRemoteEngine: %v", err)
	}
	e.client = ts.Client()

	got, err := e.requestEmbeddings(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("requestEmbeddings: %v", err)
	}
	if len(got) != 2 || got[0][0] != 0.1 || got[1][0] != 0.2 {
		t.Fatalf("expected embeddings sorted by index, got %+v", got)
	}
}

func TestRemoteEngineEmbedBatchChunksAt50(t *testing.T) {
	var batchSizes []int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		inputs, _ := req.Input.([]interface{})
		batchSizes = append(batchSizes, len(inputs))

		data := make([]remoteEmbedDatum, len(inputs))
		for i := range inputs {
			data[i] = remoteEmbedDatum{Embedding: []float32{1}, Index: i}
		}
		resp := remoteEmbedResponse{Data: data}
		b, _ := json.Marshal(resp)
		w.Write(b)
	}))
	defer ts.Close()

	e, err := NewRemoteEngine(ts.URL, "test-model", "", 1)
	if err != nil {
		t.Fatalf("NewRemoteEngine: %v", err)
	}
	e.client = ts.Client()

	texts := make([]string, 120)
	for i := range texts {
		texts[i] = "text"
	}
	got, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(got) != 120 {
		t.Fatalf("expected 120 embeddings, got %d", len(got))
	}
	if len(batchSizes) != 3 || batchSizes[0] != 50 || batchSizes[1] != 50 || batchSizes[2] != 20 {
		t.Fatalf("expected chunks of 50/50/20, got %+v", batchSizes)
	}
}

func TestRemoteEngineDimensionMismatchFailsBatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3],"index":0}]}`))
	}))
	defer ts.Close()

	e, err := NewRemoteEngine(ts.URL, "test-model", "", 768)
	if err != nil {
		t.Fatalf("NewRemoteEngine: %v", err)
	}
	e.client = ts.Client()

	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Fatalf("expected dimension mismatch error, got nil")
	} else if !strings.Contains(err.Error(), "dimension mismatch") {
		t.Fatalf("expected dimension mismatch error, got %v", err)
	}
}

func TestNullEngineDegradesGracefully(t *testing.T) {
	e := NewNullEngine()
	vec, err := e.Embed(context.Background(), "anything")
	if err != nil || vec != nil {
		t.Fatalf("expected nil vector and no error, got %v %v", vec, err)
	}
	batch, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil || len(batch) != 2 {
		t.Fatalf("expected 2 nil entries and no error, got %v %v", batch, err)
	}
	if e.Dimensions() != 0 {
		t.Fatalf("expected 0 dimensions, got %d", e.Dimensions())
	}
}

func TestNewEngineDisabledSentinelReturnsNullProvider(t *testing.T) {
	for _, provider := range []string{"", "disabled", "Disabled"} {
		cfg := DefaultConfig()
		cfg.Provider = provider
		engine, err := NewEngine(cfg)
		if err != nil {
			t.Fatalf("NewEngine(%q): %v", provider, err)
		}
		if _, ok := engine.(*NullEngine); !ok {
			t.Fatalf("NewEngine(%q): expected NullEngine, got %T", provider, engine)
		}
	}
}
