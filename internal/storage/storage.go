// Package storage defines the persistence interface for projects, documents,
// and derived QA pairs.
package storage

import (
	"context"
	"errors"

	"github.com/HarshaParisha/insyte/internal/models"
)

// ErrDuplicateProject is returned when a project name is already taken.
// Name uniqueness is a hard invariant enforced by the store; callers can show
// "name already exists" instead of a generic failure.
var ErrDuplicateProject = errors.New("project name already exists")

// ErrNotFound is returned when a project or document does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines project, document, and QA pair persistence operations.
// Every method distinguishes failure from emptiness: an error means the
// operation did not happen, never "empty result with success".
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
	DeleteProject(ctx context.Context, id string) error

	// Document operations
	SaveDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetProjectDocuments(ctx context.Context, projectID string) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// QA pair operations
	ReplaceDocumentQAPairs(ctx context.Context, documentID string, pairs []models.QAPair) error
	GetDocumentQAPairs(ctx context.Context, documentID string) ([]*models.QAPair, error)
	GetProjectQAPairs(ctx context.Context, projectID string, limit int) ([]*models.QAPair, error)

	// Stats
	CountProjects(ctx context.Context) (int64, error)
	CountDocuments(ctx context.Context) (int64, error)
	CountQAPairs(ctx context.Context) (int64, error)

	Close() error
}
