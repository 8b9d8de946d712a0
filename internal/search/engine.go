// Package search provides the project-scoped semantic search engine:
// an embedding model plus an inner-product index over one project's documents.
package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/HarshaParisha/insyte/internal/config"
	"github.com/HarshaParisha/insyte/internal/embedding"
	"github.com/HarshaParisha/insyte/internal/vector"
	"github.com/HarshaParisha/insyte/pkg/utils"
)

// ErrNotInitialized is returned when Search or AddDocuments is called before
// the embedding model and index exist. This is a programming error, not a
// recoverable runtime condition.
var ErrNotInitialized = errors.New("embedding model and index must be loaded first")

// Metadata describes one indexed entry and maps a query hit back to its
// source document.
type Metadata struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	DocumentID string `json:"document_id,omitempty"`
	Filename   string `json:"filename,omitempty"`
	FileType   string `json:"file_type,omitempty"`
}

// Match is a single engine-level search hit.
type Match struct {
	Text     string   `json:"document_text"`
	Metadata Metadata `json:"metadata"`
	Score    float64  `json:"score"`
	Row      int      `json:"row"`
}

// Info describes the engine's current index.
type Info struct {
	Status         string `json:"status"`
	TotalDocuments int    `json:"total_documents"`
	Dimensions     int    `json:"dimensions"`
	ModelName      string `json:"embedding_model"`
	IndexPath      string `json:"index_path,omitempty"`
}

// Engine holds the embedding function and the similarity index over the
// current working set (one project's documents at a time), plus the parallel
// text/metadata lists keyed by insertion order.
//
// The lifecycle is: no embedder -> embedder loaded -> index ready.
// Rebuild and query are mutually exclusive; a single mutex serializes them.
type Engine struct {
	cfg       *config.EmbeddingConfig
	indexPath string
	logger    *zap.Logger

	mu        sync.Mutex
	embedder  embedding.Embedder
	index     vector.Index
	documents []string
	metadata  []Metadata
}

// Option configures an Engine.
type Option func(*Engine)

// WithEmbedder injects an embedder, skipping model loading. Used by tests and
// by callers that construct the embedder themselves.
func WithEmbedder(e embedding.Embedder) Option {
	return func(eng *Engine) { eng.embedder = e }
}

// NewEngine creates an engine. No model is loaded and no index exists yet.
func NewEngine(cfg *config.EmbeddingConfig, indexPath string, logger *zap.Logger, opts ...Option) *Engine {
	eng := &Engine{
		cfg:       cfg,
		indexPath: indexPath,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// LoadEmbeddingModel loads the sentence-embedding function. Idempotent: a
// loaded model is kept. With a configured model path the ONNX backend is used;
// without one a deterministic hash embedder stands in so the service can run
// model-less. On failure the engine stays uninitialized and the cause is returned.
func (e *Engine) LoadEmbeddingModel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.embedder != nil {
		return nil
	}
	if e.cfg.ModelPath == "" {
		e.logger.Warn("no embedding model path configured, using hash embedder",
			zap.Int("dimensions", e.cfg.Dimensions))
		e.embedder = embedding.NewHashEmbedder(e.cfg.Dimensions)
		return nil
	}
	emb, err := embedding.NewONNXEmbedder(
		e.cfg.ModelPath, e.cfg.ModelName,
		e.cfg.Dimensions, e.cfg.MaxTokens, e.cfg.CacheSize,
	)
	if err != nil {
		return fmt.Errorf("failed to load embedding model %s: %w", e.cfg.ModelName, err)
	}
	e.logger.Info("embedding model loaded",
		zap.String("model", e.cfg.ModelName),
		zap.Int("dimensions", e.cfg.Dimensions))
	e.embedder = emb
	return nil
}

// CreateIndex allocates an empty inner-product index of the given dimension,
// clearing any prior documents and metadata. Requires a loaded embedding model.
func (e *Engine) CreateIndex(dimension int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createIndexLocked(dimension)
}

func (e *Engine) createIndexLocked(dimension int) error {
	if e.embedder == nil {
		return ErrNotInitialized
	}
	idx, err := vector.NewFlatIndex(dimension)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	e.index = idx
	e.documents = nil
	e.metadata = nil
	return nil
}

// AddDocuments embeds each text, L2-normalizes, and appends to the index and
// the parallel text/metadata lists. When metadata is nil, entries are
// synthesized as {id: i, source: "unknown"}. Requires model and index.
func (e *Engine) AddDocuments(ctx context.Context, texts []string, metadata []Metadata) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addDocumentsLocked(ctx, texts, metadata)
}

func (e *Engine) addDocumentsLocked(ctx context.Context, texts []string, metadata []Metadata) error {
	if e.embedder == nil || e.index == nil {
		return ErrNotInitialized
	}
	if metadata == nil {
		metadata = make([]Metadata, len(texts))
		for i := range texts {
			metadata[i] = Metadata{ID: strconv.Itoa(i), Source: "unknown"}
		}
	}
	if len(metadata) != len(texts) {
		return fmt.Errorf("texts and metadata length mismatch: %d vs %d", len(texts), len(metadata))
	}

	embeddings, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}
	for _, emb := range embeddings {
		utils.NormalizeL2(emb)
	}
	if err := e.index.Add(ctx, embeddings); err != nil {
		return fmt.Errorf("failed to index embeddings: %w", err)
	}
	e.documents = append(e.documents, texts...)
	e.metadata = append(e.metadata, metadata...)
	e.logger.Debug("documents added to index",
		zap.Int("added", len(texts)),
		zap.Int("total", len(e.documents)))
	return nil
}

// Search embeds the query and returns up to k entries with similarity >=
// threshold, ordered by similarity descending. An empty index returns an
// empty result immediately, without an embedding call.
func (e *Engine) Search(ctx context.Context, query string, k int, threshold float64) ([]*Match, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searchLocked(ctx, query, k, threshold)
}

func (e *Engine) searchLocked(ctx context.Context, query string, k int, threshold float64) ([]*Match, error) {
	if e.embedder == nil || e.index == nil {
		return nil, ErrNotInitialized
	}
	total := e.index.Size()
	if total == 0 {
		return nil, nil
	}
	if k > total {
		k = total
	}

	queryEmbedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	utils.NormalizeL2(queryEmbedding)

	hits, err := e.index.Search(ctx, queryEmbedding, k)
	if err != nil {
		return nil, fmt.Errorf("index search failed: %w", err)
	}

	var matches []*Match
	for _, hit := range hits {
		if hit.Row < 0 || hit.Score < threshold {
			continue
		}
		matches = append(matches, &Match{
			Text:     e.documents[hit.Row],
			Metadata: e.metadata[hit.Row],
			Score:    hit.Score,
			Row:      hit.Row,
		})
	}
	e.logger.Debug("search completed",
		zap.String("query", utils.Truncate(query, 50)),
		zap.Int("results", len(matches)))
	return matches, nil
}

// Clear resets the index to empty at the same dimensionality, dropping all
// documents and metadata. Unlike CreateIndex it cannot change the dimension.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == nil {
		return ErrNotInitialized
	}
	e.index.Reset()
	e.documents = nil
	e.metadata = nil
	return nil
}

// Size returns the number of indexed entries.
func (e *Engine) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == nil {
		return 0
	}
	return e.index.Size()
}

// Info returns the engine's index status.
func (e *Engine) Info() *Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == nil {
		return &Info{Status: "not_loaded", ModelName: e.cfg.ModelName}
	}
	return &Info{
		Status:         "loaded",
		TotalDocuments: e.index.Size(),
		Dimensions:     e.index.Dimensions(),
		ModelName:      e.modelNameLocked(),
		IndexPath:      e.indexPath,
	}
}

// modelNameLocked prefers the live embedder's name over the configured one.
func (e *Engine) modelNameLocked() string {
	if e.embedder != nil {
		return e.embedder.Name()
	}
	return e.cfg.ModelName
}

// Close releases the embedder.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.embedder != nil {
		err := e.embedder.Close()
		e.embedder = nil
		return err
	}
	return nil
}
