package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/HarshaParisha/insyte/internal/config"
	"github.com/HarshaParisha/insyte/internal/embedding"
	"github.com/HarshaParisha/insyte/internal/models"
)

func newTestEngine(t *testing.T, indexPath string) *Engine {
	t.Helper()
	cfg := &config.EmbeddingConfig{ModelName: "hash", Dimensions: 16}
	return NewEngine(cfg, indexPath, zap.NewNop(),
		WithEmbedder(embedding.NewHashEmbedder(16)))
}

func TestEngineRequiresInitialization(t *testing.T) {
	cfg := &config.EmbeddingConfig{ModelName: "hash", Dimensions: 16}
	e := NewEngine(cfg, "", zap.NewNop())

	// No embedder yet: index creation and mutation must refuse.
	if err := e.CreateIndex(16); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("CreateIndex: got %v, want ErrNotInitialized", err)
	}
	if err := e.AddDocuments(context.Background(), []string{"x"}, nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("AddDocuments: got %v, want ErrNotInitialized", err)
	}
	if _, err := e.Search(context.Background(), "q", 5, 0); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Search: got %v, want ErrNotInitialized", err)
	}
	if err := e.Clear(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Clear: got %v, want ErrNotInitialized", err)
	}
}

func TestLoadEmbeddingModelIdempotent(t *testing.T) {
	e := newTestEngine(t, "")
	if err := e.LoadEmbeddingModel(); err != nil {
		t.Fatal(err)
	}
	// A second load keeps the existing embedder.
	if err := e.LoadEmbeddingModel(); err != nil {
		t.Fatal(err)
	}
}

func TestLoadEmbeddingModelWithoutPath(t *testing.T) {
	cfg := &config.EmbeddingConfig{ModelName: "hash", Dimensions: 8}
	e := NewEngine(cfg, "", zap.NewNop())
	if err := e.LoadEmbeddingModel(); err != nil {
		t.Fatal(err)
	}
	if err := e.CreateIndex(8); err != nil {
		t.Fatal(err)
	}
}

func TestAddDocumentsSynthesizesMetadata(t *testing.T) {
	e := newTestEngine(t, "")
	ctx := context.Background()
	if err := e.CreateIndex(16); err != nil {
		t.Fatal(err)
	}
	if err := e.AddDocuments(ctx, []string{"first text", "second text"}, nil); err != nil {
		t.Fatal(err)
	}

	matches, err := e.Search(ctx, "first text", 2, -2)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches: got %d, want 2", len(matches))
	}
	if matches[0].Metadata.Source != "unknown" {
		t.Errorf("synthesized source: got %q, want unknown", matches[0].Metadata.Source)
	}
}

func TestAddDocumentsLengthMismatch(t *testing.T) {
	e := newTestEngine(t, "")
	if err := e.CreateIndex(16); err != nil {
		t.Fatal(err)
	}
	err := e.AddDocuments(context.Background(), []string{"a", "b"}, []Metadata{{ID: "1"}})
	if err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestSearchExactMatchRanksFirst(t *testing.T) {
	e := newTestEngine(t, "")
	ctx := context.Background()
	if err := e.CreateIndex(16); err != nil {
		t.Fatal(err)
	}
	texts := []string{"alpha document", "beta document", "gamma document"}
	metas := []Metadata{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if err := e.AddDocuments(ctx, texts, metas); err != nil {
		t.Fatal(err)
	}

	matches, err := e.Search(ctx, "beta document", 3, -2)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	if matches[0].Metadata.ID != "b" {
		t.Errorf("top match: got %q, want b", matches[0].Metadata.ID)
	}
	if matches[0].Score < 0.999 {
		t.Errorf("exact-match score: got %f, want ~1.0", matches[0].Score)
	}
	if matches[0].Row != 1 {
		t.Errorf("top row: got %d, want 1", matches[0].Row)
	}
}

func TestSearchThresholdFiltersEverything(t *testing.T) {
	e := newTestEngine(t, "")
	ctx := context.Background()
	if err := e.CreateIndex(16); err != nil {
		t.Fatal(err)
	}
	if err := e.AddDocuments(ctx, []string{"some text"}, nil); err != nil {
		t.Fatal(err)
	}
	// Inner products of unit vectors cannot reach 2.
	matches, err := e.Search(ctx, "query", 5, 2.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("matches above impossible threshold: got %d", len(matches))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	e := newTestEngine(t, "")
	if err := e.CreateIndex(16); err != nil {
		t.Fatal(err)
	}
	matches, err := e.Search(context.Background(), "anything", 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("matches on empty index: got %d", len(matches))
	}
}

func TestClearKeepsDimension(t *testing.T) {
	e := newTestEngine(t, "")
	ctx := context.Background()
	if err := e.CreateIndex(16); err != nil {
		t.Fatal(err)
	}
	if err := e.AddDocuments(ctx, []string{"text"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.Clear(); err != nil {
		t.Fatal(err)
	}
	if e.Size() != 0 {
		t.Errorf("size after clear: got %d, want 0", e.Size())
	}
	// The cleared index accepts documents at the same dimension.
	if err := e.AddDocuments(ctx, []string{"new text"}, nil); err != nil {
		t.Fatal(err)
	}
}

func TestCreateIndexResetsDocuments(t *testing.T) {
	e := newTestEngine(t, "")
	ctx := context.Background()
	if err := e.CreateIndex(16); err != nil {
		t.Fatal(err)
	}
	if err := e.AddDocuments(ctx, []string{"old"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.CreateIndex(16); err != nil {
		t.Fatal(err)
	}
	if e.Size() != 0 {
		t.Errorf("size after recreate: got %d, want 0", e.Size())
	}
}

func TestEngineInfo(t *testing.T) {
	e := newTestEngine(t, "/tmp/idx.bin")
	info := e.Info()
	if info.Status != "not_loaded" {
		t.Errorf("status: got %q, want not_loaded", info.Status)
	}
	if err := e.CreateIndex(16); err != nil {
		t.Fatal(err)
	}
	info = e.Info()
	if info.Status != "loaded" {
		t.Errorf("status: got %q, want loaded", info.Status)
	}
	if info.Dimensions != 16 {
		t.Errorf("dimensions: got %d, want 16", info.Dimensions)
	}
	if info.ModelName != "hash" {
		t.Errorf("model: got %q, want hash", info.ModelName)
	}
}

func TestSaveLoadIndexRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.idx")
	ctx := context.Background()

	e := newTestEngine(t, path)
	if err := e.CreateIndex(16); err != nil {
		t.Fatal(err)
	}
	texts := []string{"first document text", "second document text"}
	metas := []Metadata{
		{ID: "d1", Source: "a.txt", Filename: "a.txt", FileType: "txt", DocumentID: "d1"},
		{ID: "d2", Source: "b.txt", Filename: "b.txt", FileType: "txt", DocumentID: "d2"},
	}
	if err := e.AddDocuments(ctx, texts, metas); err != nil {
		t.Fatal(err)
	}
	if err := e.SaveIndex(); err != nil {
		t.Fatal(err)
	}

	restored := newTestEngine(t, path)
	if err := restored.LoadIndex(); err != nil {
		t.Fatal(err)
	}
	if restored.Size() != 2 {
		t.Fatalf("size after load: got %d, want 2", restored.Size())
	}

	matches, err := restored.Search(ctx, "second document text", 1, -2)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Metadata.ID != "d2" {
		t.Errorf("match after load: got %+v", matches)
	}
	if matches[0].Text != "second document text" {
		t.Errorf("text after load: got %q", matches[0].Text)
	}
}

func TestLoadIndexMissingFile(t *testing.T) {
	e := newTestEngine(t, filepath.Join(t.TempDir(), "absent.idx"))
	if err := e.LoadIndex(); err == nil {
		t.Error("expected error loading a missing index")
	}
}

func TestBuildProjectIndexAndSearch(t *testing.T) {
	e := newTestEngine(t, "")
	ctx := context.Background()

	docs := []*models.Document{
		{ID: "d1", OriginalFilename: "one.txt", FileType: "txt", Content: "the first project document"},
		{ID: "d2", OriginalFilename: "two.pdf", FileType: "pdf", Content: "the second project document"},
		{ID: "d3", OriginalFilename: "empty.txt", FileType: "txt", Content: ""},
	}
	if err := e.BuildProjectIndex(ctx, docs); err != nil {
		t.Fatal(err)
	}
	// Empty-content documents are not indexed.
	if e.Size() != 2 {
		t.Fatalf("size: got %d, want 2", e.Size())
	}

	results, err := e.SearchProject(ctx, "the second project document", 5, -2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	top := results[0]
	if top.DocumentID != "d2" || top.Filename != "two.pdf" || top.FileType != "pdf" {
		t.Errorf("top result: got %+v", top)
	}
	if top.SimilarityPercentage != 100 {
		t.Errorf("percentage: got %d, want 100", top.SimilarityPercentage)
	}
	if top.Relevance != models.RelevanceHigh {
		t.Errorf("relevance: got %q, want high", top.Relevance)
	}
}

func TestBuildProjectIndexRebuildReplaces(t *testing.T) {
	e := newTestEngine(t, "")
	ctx := context.Background()

	first := []*models.Document{
		{ID: "old", OriginalFilename: "old.txt", FileType: "txt", Content: "old content"},
	}
	if err := e.BuildProjectIndex(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := []*models.Document{
		{ID: "n1", OriginalFilename: "n1.txt", FileType: "txt", Content: "new content one"},
		{ID: "n2", OriginalFilename: "n2.txt", FileType: "txt", Content: "new content two"},
	}
	if err := e.BuildProjectIndex(ctx, second); err != nil {
		t.Fatal(err)
	}
	if e.Size() != 2 {
		t.Errorf("size after rebuild: got %d, want 2", e.Size())
	}

	results, err := e.SearchProject(ctx, "old content", 5, -2)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.DocumentID == "old" {
			t.Error("stale document survived rebuild")
		}
	}
}

func TestBuildProjectIndexEmpty(t *testing.T) {
	e := newTestEngine(t, "")
	if err := e.BuildProjectIndex(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if e.Size() != 0 {
		t.Errorf("size: got %d, want 0", e.Size())
	}
}
