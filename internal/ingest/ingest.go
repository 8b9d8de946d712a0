// Package ingest runs the document upload pipeline: extract text, persist the
// document, and generate its question/answer pairs. Failures are captured per
// file so one bad upload never aborts a batch.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HarshaParisha/insyte/internal/extract"
	"github.com/HarshaParisha/insyte/internal/models"
	"github.com/HarshaParisha/insyte/internal/qa"
	"github.com/HarshaParisha/insyte/internal/storage"
)

// File is one uploaded file: its client-supplied name and raw bytes.
type File struct {
	Name    string
	Content []byte
}

// Service wires extraction, storage, and QA generation into one pipeline.
type Service struct {
	store      storage.Storage
	extractor  *extract.Extractor
	generator  *qa.Generator
	maxQAPairs int
	logger     *zap.Logger
}

// NewService creates the ingest service.
func NewService(store storage.Storage, maxQAPairs int, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		extractor:  extract.NewExtractor(),
		generator:  qa.NewGenerator(),
		maxQAPairs: maxQAPairs,
		logger:     logger,
	}
}

// ProcessUpload runs every file through the pipeline and reports per-file
// outcomes. The batch always completes; inspect the report for failures.
func (s *Service) ProcessUpload(ctx context.Context, projectID string, files []File) *models.UploadReport {
	report := &models.UploadReport{}
	for _, f := range files {
		result := s.processFile(ctx, projectID, f)
		report.Add(result)
	}
	s.logger.Info("upload processed",
		zap.String("project_id", projectID),
		zap.Int("succeeded", report.SuccessCount),
		zap.Int("failed", report.FailureCount))
	return report
}

func (s *Service) processFile(ctx context.Context, projectID string, f File) *models.FileResult {
	result := &models.FileResult{Filename: f.Name}

	extracted, err := s.extractor.Extract(f.Content, f.Name)
	if err != nil {
		result.Error = fmt.Sprintf("extraction failed: %v", err)
		return result
	}
	if !extracted.Supported {
		result.Error = fmt.Sprintf("unsupported file type: %s", strings.ToLower(filepath.Ext(f.Name)))
		return result
	}
	if strings.TrimSpace(extracted.Text) == "" {
		result.Error = "no text content extracted"
		return result
	}

	meta := extracted.Meta
	meta.FileSize = int64(len(f.Content))

	doc := &models.Document{
		ID:               uuid.New().String(),
		ProjectID:        projectID,
		Filename:         storageKey(f.Name),
		OriginalFilename: f.Name,
		FileType:         strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), "."),
		Content:          extracted.Text,
		FileSize:         int64(len(f.Content)),
		PageCount:        meta.PageCount,
		UploadDate:       time.Now().UTC(),
		Metadata:         meta,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		result.Error = fmt.Sprintf("failed to save document: %v", err)
		return result
	}

	pairs := s.generator.Generate(extracted.Text, f.Name, s.maxQAPairs)
	for i := range pairs {
		pairs[i].DocumentID = doc.ID
	}
	if err := s.store.ReplaceDocumentQAPairs(ctx, doc.ID, pairs); err != nil {
		// The document is saved; losing QA pairs degrades the questions view
		// but not search, so log and report success with zero pairs.
		s.logger.Warn("failed to save QA pairs",
			zap.String("document_id", doc.ID),
			zap.Error(err))
	} else {
		result.QAPairs = len(pairs)
	}

	result.DocumentID = doc.ID
	result.Success = true
	return result
}

// storageKey derives a collision-safe stored filename from the original name.
func storageKey(name string) string {
	ext := filepath.Ext(name)
	return uuid.New().String() + ext
}
