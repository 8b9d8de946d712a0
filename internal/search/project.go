package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HarshaParisha/insyte/internal/models"
	"github.com/HarshaParisha/insyte/pkg/utils"
)

// BuildProjectIndex discards the current index and rebuilds it from the given
// documents. This is a full rebuild every time: switching the active project,
// or searching after an upload, always re-embeds the project's entire corpus.
// Documents with empty content are skipped.
func (e *Engine) BuildProjectIndex(ctx context.Context, docs []*models.Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.embedder == nil {
		return ErrNotInitialized
	}
	if err := e.createIndexLocked(e.embedder.Dimensions()); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, 0, len(docs))
	metadata := make([]Metadata, 0, len(docs))
	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		texts = append(texts, doc.Content)
		metadata = append(metadata, Metadata{
			ID:         doc.ID,
			Source:     doc.OriginalFilename,
			DocumentID: doc.ID,
			Filename:   doc.OriginalFilename,
			FileType:   doc.FileType,
		})
	}
	if len(texts) == 0 {
		return nil
	}

	start := time.Now()
	if err := e.addDocumentsLocked(ctx, texts, metadata); err != nil {
		return err
	}
	e.logger.Info("project index rebuilt",
		zap.Int("documents", len(texts)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// SearchProject runs a semantic query against the current project index and
// maps hits to API-level results with similarity percentages and relevance
// buckets.
func (e *Engine) SearchProject(ctx context.Context, query string, k int, threshold float64) ([]*models.SearchResult, error) {
	matches, err := e.Search(ctx, query, k, threshold)
	if err != nil {
		return nil, err
	}

	results := make([]*models.SearchResult, 0, len(matches))
	for _, m := range matches {
		pct := utils.RoundPercentage(m.Score)
		results = append(results, &models.SearchResult{
			DocumentID:           m.Metadata.DocumentID,
			Filename:             m.Metadata.Filename,
			FileType:             m.Metadata.FileType,
			Text:                 m.Text,
			Score:                m.Score,
			SimilarityPercentage: pct,
			Relevance:            models.RelevanceBucket(pct),
			Row:                  m.Row,
		})
	}
	return results, nil
}
