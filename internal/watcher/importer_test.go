package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/HarshaParisha/insyte/internal/ingest"
	"github.com/HarshaParisha/insyte/internal/models"
	"github.com/HarshaParisha/insyte/internal/storage"
)

const importerText = `Abstract: This memo lays out the retention policy for imported
documents and explains why every import directory maps to exactly one project.

Directory import is a mechanism of feeding documents into a project without the
HTTP API. The process watches a directory and ingests any file that settles.`

func newTestImporter(t *testing.T) (*Importer, *storage.SQLiteStore) {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	logger := zap.NewNop()
	return NewImporter(store, ingest.NewService(store, 10, logger), logger), store
}

func TestImportCreatesProject(t *testing.T) {
	im, store := newTestImporter(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "memo.txt")
	if err := os.WriteFile(path, []byte(importerText), 0o644); err != nil {
		t.Fatal(err)
	}

	im.Import("inbox", path)

	projects, err := store.ListProjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].Name != "inbox" {
		t.Fatalf("projects: %+v", projects)
	}
	if projects[0].DocumentCount != 1 {
		t.Errorf("document count: got %d, want 1", projects[0].DocumentCount)
	}

	docs, err := store.GetProjectDocuments(ctx, projects[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].OriginalFilename != "memo.txt" {
		t.Errorf("documents: %+v", docs)
	}
}

func TestImportReusesExistingProject(t *testing.T) {
	im, store := newTestImporter(t)
	ctx := context.Background()

	existing := &models.Project{Name: "inbox"}
	if err := store.CreateProject(ctx, existing); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	for _, name := range []string{"one.txt", "two.txt"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(importerText), 0o644); err != nil {
			t.Fatal(err)
		}
		im.Import("inbox", path)
	}

	projects, err := store.ListProjects(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 {
		t.Fatalf("projects: got %d, want 1", len(projects))
	}
	if projects[0].ID != existing.ID {
		t.Error("import created a new project instead of reusing")
	}
	if projects[0].DocumentCount != 2 {
		t.Errorf("document count: got %d, want 2", projects[0].DocumentCount)
	}
}

func TestImportMissingFile(t *testing.T) {
	im, store := newTestImporter(t)

	im.Import("inbox", filepath.Join(t.TempDir(), "vanished.txt"))

	// The project resolves before the read fails, but no document appears.
	projects, err := store.ListProjects(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 {
		t.Fatalf("projects: got %d", len(projects))
	}
	if projects[0].DocumentCount != 0 {
		t.Errorf("document count: got %d, want 0", projects[0].DocumentCount)
	}
}
