// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/HarshaParisha/insyte/internal/models"
)

// SQLiteStore implements Storage using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	// Cascade deletes (project -> documents -> qa pairs) need this on.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS project_documents (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		file_type TEXT,
		content TEXT NOT NULL,
		file_size INTEGER,
		page_count INTEGER,
		upload_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		metadata TEXT,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_documents_project_id ON project_documents(project_id);
	CREATE INDEX IF NOT EXISTS idx_documents_upload_date ON project_documents(upload_date);

	CREATE TABLE IF NOT EXISTS document_qa (
		id TEXT PRIMARY KEY,
		document_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		source TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (document_id) REFERENCES project_documents(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_qa_document_id ON document_qa(document_id);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateProject inserts a project, assigning an ID when unset.
// A duplicate name returns ErrDuplicateProject.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *models.Project) error {
	if p.Name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrDuplicateProject, p.Name)
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject returns a project by ID with its live document count.
func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	err := s.db.QueryRowContext(ctx,
		`SELECT p.id, p.name, p.description, p.created_at, p.updated_at,
		        (SELECT COUNT(*) FROM project_documents d WHERE d.project_id = p.id)
		 FROM projects p WHERE p.id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.DocumentCount)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects, newest first, each with its live
// document count (computed per query, never cached).
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]*models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.description, p.created_at, p.updated_at,
		        COUNT(d.id)
		 FROM projects p
		 LEFT JOIN project_documents d ON d.project_id = p.id
		 GROUP BY p.id
		 ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt, &p.DocumentCount); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// DeleteProject deletes a project; documents and QA pairs cascade.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	return nil
}

// SaveDocument inserts a document and bumps the owning project's updated_at
// in the same transaction. The document gets an ID when unset.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now()
	}
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE projects SET updated_at = ? WHERE id = ?`,
		doc.UploadDate, doc.ProjectID)
	if err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: project %s", ErrNotFound, doc.ProjectID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO project_documents
		 (id, project_id, filename, original_filename, file_type, content, file_size, page_count, upload_date, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.ProjectID, doc.Filename, doc.OriginalFilename, doc.FileType,
		doc.Content, doc.FileSize, doc.PageCount, doc.UploadDate, string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return tx.Commit()
}

const documentColumns = `id, project_id, filename, original_filename, file_type, content, file_size, page_count, upload_date, metadata`

func scanDocument(scan func(dest ...any) error) (*models.Document, error) {
	var doc models.Document
	var metadataJSON sql.NullString
	err := scan(&doc.ID, &doc.ProjectID, &doc.Filename, &doc.OriginalFilename,
		&doc.FileType, &doc.Content, &doc.FileSize, &doc.PageCount, &doc.UploadDate, &metadataJSON)
	if err != nil {
		return nil, err
	}
	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &doc, nil
}

// GetDocument returns a document by ID.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM project_documents WHERE id = ?`, id)
	doc, err := scanDocument(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// GetProjectDocuments returns all documents owned by a project, newest first.
func (s *SQLiteStore) GetProjectDocuments(ctx context.Context, projectID string) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM project_documents
		 WHERE project_id = ? ORDER BY upload_date DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument deletes a document; its QA pairs cascade.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM project_documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	return nil
}

// ReplaceDocumentQAPairs replaces all QA pairs for a document in one
// transaction: existing pairs are deleted before the new set is inserted, so
// pairs are either absent or exactly the latest generation run's output.
func (s *SQLiteStore) ReplaceDocumentQAPairs(ctx context.Context, documentID string, pairs []models.QAPair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_qa WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("delete qa pairs: %w", err)
	}
	now := time.Now()
	for i := range pairs {
		if pairs[i].ID == "" {
			pairs[i].ID = uuid.New().String()
		}
		pairs[i].DocumentID = documentID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO document_qa (id, document_id, question, answer, source, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			pairs[i].ID, documentID, pairs[i].Question, pairs[i].Answer, pairs[i].Source, now)
		if err != nil {
			return fmt.Errorf("insert qa pair: %w", err)
		}
	}
	return tx.Commit()
}

// GetDocumentQAPairs returns the QA pairs for one document.
func (s *SQLiteStore) GetDocumentQAPairs(ctx context.Context, documentID string) ([]*models.QAPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, question, answer, source
		 FROM document_qa WHERE document_id = ? ORDER BY created_at DESC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document qa pairs: %w", err)
	}
	return scanQAPairs(rows)
}

// GetProjectQAPairs joins QA pairs across all documents owned by the project,
// most recent first, bounded by limit.
func (s *SQLiteStore) GetProjectQAPairs(ctx context.Context, projectID string, limit int) ([]*models.QAPair, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT qa.id, qa.document_id, qa.question, qa.answer, qa.source
		 FROM document_qa qa
		 JOIN project_documents d ON d.id = qa.document_id
		 WHERE d.project_id = ?
		 ORDER BY qa.created_at DESC
		 LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("get project qa pairs: %w", err)
	}
	return scanQAPairs(rows)
}

func scanQAPairs(rows *sql.Rows) ([]*models.QAPair, error) {
	defer rows.Close()
	var pairs []*models.QAPair
	for rows.Next() {
		var p models.QAPair
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Question, &p.Answer, &p.Source); err != nil {
			return nil, fmt.Errorf("scan qa pair: %w", err)
		}
		pairs = append(pairs, &p)
	}
	return pairs, rows.Err()
}

// CountProjects returns the number of projects.
func (s *SQLiteStore) CountProjects(ctx context.Context) (int64, error) {
	return s.countRows(ctx, "projects")
}

// CountDocuments returns the number of documents across all projects.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	return s.countRows(ctx, "project_documents")
}

// CountQAPairs returns the number of stored QA pairs.
func (s *SQLiteStore) CountQAPairs(ctx context.Context) (int64, error) {
	return s.countRows(ctx, "document_qa")
}

func (s *SQLiteStore) countRows(ctx context.Context, table string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
