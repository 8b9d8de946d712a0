// Package embedding provides text embedding with an ONNX backend and caching.
package embedding

import (
	"context"
	"hash/fnv"
)

// Embedder produces fixed-length vector embeddings for text.
// Name identifies the underlying model; it is persisted with saved indices so
// a later load can detect that vectors were produced by a different model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
	Close() error
}

// HashString returns a stable FNV-1a hash of s, used for token IDs and
// deterministic test embeddings.
func HashString(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32())
}
