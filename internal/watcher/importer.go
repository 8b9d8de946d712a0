package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HarshaParisha/insyte/internal/ingest"
	"github.com/HarshaParisha/insyte/internal/models"
	"github.com/HarshaParisha/insyte/internal/storage"
)

// Importer bridges watcher events to storage: it resolves the target project
// by name, creating it on first use, and runs the file through ingest.
type Importer struct {
	store  storage.Storage
	ingest *ingest.Service
	logger *zap.Logger
}

// NewImporter creates an importer.
func NewImporter(store storage.Storage, ing *ingest.Service, logger *zap.Logger) *Importer {
	return &Importer{store: store, ingest: ing, logger: logger}
}

// Import ingests one file into the named project. Errors are logged, not
// returned; the watcher callback has nowhere to propagate them.
func (im *Importer) Import(project, path string) {
	ctx := context.Background()
	projectID, err := im.resolveProject(ctx, project)
	if err != nil {
		im.logger.Error("failed to resolve import project",
			zap.String("project", project),
			zap.Error(err))
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		im.logger.Error("failed to read import file",
			zap.String("path", path),
			zap.Error(err))
		return
	}

	report := im.ingest.ProcessUpload(ctx, projectID, []ingest.File{
		{Name: filepath.Base(path), Content: content},
	})
	if report.FailureCount > 0 {
		for _, f := range report.Files {
			if !f.Success {
				im.logger.Warn("import failed",
					zap.String("path", path),
					zap.String("reason", f.Error))
			}
		}
		return
	}
	im.logger.Info("file imported",
		zap.String("project", project),
		zap.String("path", path))
}

// resolveProject finds a project by name, creating it if absent. A concurrent
// create losing the unique-name race falls back to a lookup.
func (im *Importer) resolveProject(ctx context.Context, name string) (string, error) {
	projects, err := im.store.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range projects {
		if p.Name == name {
			return p.ID, nil
		}
	}

	now := time.Now().UTC()
	project := &models.Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: "Auto-created by directory import",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = im.store.CreateProject(ctx, project)
	if err == nil {
		return project.ID, nil
	}
	if errors.Is(err, storage.ErrDuplicateProject) {
		projects, listErr := im.store.ListProjects(ctx)
		if listErr != nil {
			return "", listErr
		}
		for _, p := range projects {
			if p.Name == name {
				return p.ID, nil
			}
		}
	}
	return "", fmt.Errorf("create project %s: %w", name, err)
}
