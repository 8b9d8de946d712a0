// Package keyword provides the Bleve-backed keyword search mode. Unlike the
// semantic engine it holds one in-memory index per project, rebuilt whenever
// the project's document set changes.
package keyword

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/HarshaParisha/insyte/internal/models"
	"github.com/HarshaParisha/insyte/pkg/utils"
)

// indexedDoc is the shape fed to Bleve for each document.
type indexedDoc struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Searcher maintains per-project in-memory keyword indexes.
type Searcher struct {
	mu      sync.Mutex
	indexes map[string]bleve.Index
	docs    map[string]map[string]*models.Document
}

// NewSearcher creates an empty keyword searcher.
func NewSearcher() *Searcher {
	return &Searcher{
		indexes: make(map[string]bleve.Index),
		docs:    make(map[string]map[string]*models.Document),
	}
}

func newIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so exact words
	// match without stem surprises.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("filename", textFieldMapping)
	im.DefaultMapping = docMapping
	return im
}

// BuildProjectIndex replaces the project's keyword index with a fresh
// in-memory index over the given documents.
func (s *Searcher) BuildProjectIndex(ctx context.Context, projectID string, docs []*models.Document) error {
	idx, err := bleve.NewMemOnly(newIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create keyword index: %w", err)
	}

	byID := make(map[string]*models.Document, len(docs))
	batch := idx.NewBatch()
	for _, doc := range docs {
		if doc.Content == "" {
			continue
		}
		if err := batch.Index(doc.ID, indexedDoc{
			Filename: doc.OriginalFilename,
			Content:  doc.Content,
		}); err != nil {
			idx.Close()
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
		byID[doc.ID] = doc
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return fmt.Errorf("failed to build keyword index: %w", err)
	}

	s.mu.Lock()
	if old, ok := s.indexes[projectID]; ok {
		old.Close()
	}
	s.indexes[projectID] = idx
	s.docs[projectID] = byID
	s.mu.Unlock()
	return nil
}

// Search runs a match query over filename and content and maps hits back to
// search results. Bleve's tf-idf scores are not cosine similarities, so they
// are clamped into [0,1] for the percentage display rather than compared
// against the semantic threshold.
func (s *Searcher) Search(ctx context.Context, projectID, query string, limit int) ([]*models.SearchResult, error) {
	s.mu.Lock()
	idx, ok := s.indexes[projectID]
	byID := s.docs[projectID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no keyword index for project %s", projectID)
	}

	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	results := make([]*models.SearchResult, 0, len(res.Hits))
	for i, hit := range res.Hits {
		doc, ok := byID[hit.ID]
		if !ok {
			continue
		}
		score := hit.Score
		if score > 1.0 {
			score = 1.0
		}
		pct := utils.RoundPercentage(score)
		results = append(results, &models.SearchResult{
			DocumentID:           doc.ID,
			Filename:             doc.OriginalFilename,
			FileType:             doc.FileType,
			Text:                 doc.Content,
			Score:                score,
			SimilarityPercentage: pct,
			Relevance:            models.RelevanceBucket(pct),
			Row:                  i,
		})
	}
	return results, nil
}

// DropProject discards a project's keyword index, if any.
func (s *Searcher) DropProject(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indexes[projectID]; ok {
		idx.Close()
		delete(s.indexes, projectID)
		delete(s.docs, projectID)
	}
}

// Close releases all indexes.
func (s *Searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, idx := range s.indexes {
		idx.Close()
		delete(s.indexes, id)
		delete(s.docs, id)
	}
	return nil
}
