package keyword

import (
	"context"
	"strings"
	"testing"

	"github.com/HarshaParisha/insyte/internal/models"
)

func testDocs() []*models.Document {
	return []*models.Document{
		{
			ID:               "d1",
			OriginalFilename: "kubernetes.txt",
			FileType:         "txt",
			Content:          "Kubernetes orchestrates containerized workloads across a cluster of nodes.",
		},
		{
			ID:               "d2",
			OriginalFilename: "databases.txt",
			FileType:         "txt",
			Content:          "Relational databases store rows in tables and support transactions.",
		},
		{
			ID:               "d3",
			OriginalFilename: "empty.txt",
			FileType:         "txt",
			Content:          "",
		},
	}
}

func TestSearchMatchesContent(t *testing.T) {
	s := NewSearcher()
	defer s.Close()
	ctx := context.Background()

	if err := s.BuildProjectIndex(ctx, "p1", testDocs()); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, "p1", "kubernetes cluster", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	top := results[0]
	if top.DocumentID != "d1" {
		t.Errorf("top document: got %q, want d1", top.DocumentID)
	}
	if top.Filename != "kubernetes.txt" {
		t.Errorf("filename: got %q", top.Filename)
	}
	if !strings.Contains(top.Text, "Kubernetes") {
		t.Errorf("text: got %q", top.Text)
	}
	if top.Score > 1.0 {
		t.Errorf("score not clamped: %f", top.Score)
	}
	if top.SimilarityPercentage < 0 || top.SimilarityPercentage > 100 {
		t.Errorf("percentage out of range: %d", top.SimilarityPercentage)
	}
	if top.Row != 0 {
		t.Errorf("row: got %d, want 0", top.Row)
	}
}

func TestSearchNoMatches(t *testing.T) {
	s := NewSearcher()
	defer s.Close()
	ctx := context.Background()

	if err := s.BuildProjectIndex(ctx, "p1", testDocs()); err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(ctx, "p1", "zanzibar", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("results for absent term: got %d", len(results))
	}
}

func TestSearchLimit(t *testing.T) {
	s := NewSearcher()
	defer s.Close()
	ctx := context.Background()

	docs := []*models.Document{
		{ID: "a", OriginalFilename: "a.txt", FileType: "txt", Content: "shared token alpha"},
		{ID: "b", OriginalFilename: "b.txt", FileType: "txt", Content: "shared token beta"},
		{ID: "c", OriginalFilename: "c.txt", FileType: "txt", Content: "shared token gamma"},
	}
	if err := s.BuildProjectIndex(ctx, "p1", docs); err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(ctx, "p1", "shared token", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("limited results: got %d, want 2", len(results))
	}
}

func TestSearchUnknownProject(t *testing.T) {
	s := NewSearcher()
	defer s.Close()
	if _, err := s.Search(context.Background(), "absent", "query", 5); err == nil {
		t.Error("expected error for unindexed project")
	}
}

func TestRebuildReplacesIndex(t *testing.T) {
	s := NewSearcher()
	defer s.Close()
	ctx := context.Background()

	if err := s.BuildProjectIndex(ctx, "p1", testDocs()); err != nil {
		t.Fatal(err)
	}
	replacement := []*models.Document{
		{ID: "n1", OriginalFilename: "n1.txt", FileType: "txt", Content: "entirely fresh material"},
	}
	if err := s.BuildProjectIndex(ctx, "p1", replacement); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, "p1", "kubernetes", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("stale documents survived rebuild: %d", len(results))
	}
	results, err = s.Search(ctx, "p1", "fresh material", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].DocumentID != "n1" {
		t.Errorf("rebuilt index results: %+v", results)
	}
}

func TestDropProject(t *testing.T) {
	s := NewSearcher()
	defer s.Close()
	ctx := context.Background()

	if err := s.BuildProjectIndex(ctx, "p1", testDocs()); err != nil {
		t.Fatal(err)
	}
	s.DropProject("p1")
	if _, err := s.Search(ctx, "p1", "kubernetes", 5); err == nil {
		t.Error("expected error after DropProject")
	}
	// Dropping again is a no-op.
	s.DropProject("p1")
}

func TestIndexesByFilename(t *testing.T) {
	s := NewSearcher()
	defer s.Close()
	ctx := context.Background()

	docs := []*models.Document{
		{ID: "d1", OriginalFilename: "budget-report.txt", FileType: "txt", Content: "quarterly numbers"},
		{ID: "d2", OriginalFilename: "notes.txt", FileType: "txt", Content: "meeting summary"},
	}
	if err := s.BuildProjectIndex(ctx, "p1", docs); err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(ctx, "p1", "budget", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].DocumentID != "d1" {
		t.Errorf("filename match: %+v", results)
	}
}
