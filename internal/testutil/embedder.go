package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// MockEmbedder implements ai.Embedder with deterministic, content-derived
// vectors: identical texts embed identically, so similarity comparisons in
// tests behave predictably without a real embedding model.
//
// Thread-safe for concurrent use.
type MockEmbedder struct {
	// Dim is the embedding dimension. Default 768 (matches the schema).
	Dim int

	// Err, when set, is returned by every Embed call.
	Err error

	mu    sync.Mutex
	calls int
}

// Name implements ai.Embedder.
func (*MockEmbedder) Name() string {
	return "mock-embedder"
}

// Register implements ai.Embedder. No-op for testing.
func (*MockEmbedder) Register(api.Registry) {}

// Embed returns one deterministic unit vector per input document.
func (m *MockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	dim := m.Dim
	if dim <= 0 {
		dim = 768
	}

	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text string
		if len(doc.Content) > 0 {
			text = doc.Content[0].Text
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: hashVector(text, dim),
		})
	}
	return resp, nil
}

// CallCount returns the number of Embed calls.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// hashVector derives a normalized vector from the SHA-256 of text.
func hashVector(text string, dim int) []float32 {
	sum := sha256.Sum256([]byte(text))

	vec := make([]float32, dim)
	var norm float64
	for i := range vec {
		// Stretch the 32-byte digest across the vector deterministically.
		word := binary.BigEndian.Uint32(sum[(i*4)%28 : (i*4)%28+4])
		v := float64(word%1000)/500.0 - 1.0 // [-1, 1)
		vec[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
