// Package vector provides similarity indexes over unit-normalized embeddings.
package vector

import "context"

// Hit is a single nearest-neighbor result. Row is the insertion-order row
// identity of the matched vector; a negative row is the backend's no-match
// sentinel and must be filtered by callers.
type Hit struct {
	Row   int
	Score float64 // inner product; equals cosine similarity for unit vectors
}

// Index supports appending vectors and inner-product nearest-neighbor search.
// Row identity is positional: the i-th added vector has row i until Reset.
type Index interface {
	Add(ctx context.Context, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	// Reset drops all vectors, keeping the dimension.
	Reset()
	Save(path string) error
	Load(path string) error
	Size() int
	Dimensions() int
	Close() error
}
