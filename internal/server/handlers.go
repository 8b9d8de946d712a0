package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HarshaParisha/insyte/internal/ingest"
	"github.com/HarshaParisha/insyte/internal/models"
	"github.com/HarshaParisha/insyte/internal/storage"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var input models.ProjectInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(input.Name) == "" {
		s.respondError(w, http.StatusBadRequest, "project name is required")
		return
	}
	now := time.Now().UTC()
	project := &models.Project{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.storage.CreateProject(r.Context(), project); err != nil {
		if errors.Is(err, storage.ErrDuplicateProject) {
			s.respondError(w, http.StatusConflict, "a project with this name already exists")
			return
		}
		s.logger.Error("create project failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.storage.ListProjects(r.Context())
	if err != nil {
		s.logger.Error("list projects failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"total":    len(projects),
	})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	project, err := s.storage.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "project not found")
			return
		}
		s.logger.Error("get project failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.storage.DeleteProject(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "project not found")
			return
		}
		s.logger.Error("delete project failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.keyword.DropProject(id)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleUploadDocuments(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if _, err := s.storage.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "project not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files provided")
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read uploaded file "+fh.Filename)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read uploaded file "+fh.Filename)
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Content: content})
	}

	report := s.ingest.ProcessUpload(r.Context(), projectID, files)
	status := http.StatusCreated
	if report.SuccessCount == 0 {
		status = http.StatusUnprocessableEntity
	}
	s.respondJSON(w, status, report)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	docs, err := s.storage.GetProjectDocuments(r.Context(), projectID)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Content is omitted from listings; it can be megabytes per document.
	type docSummary struct {
		ID               string `json:"id"`
		OriginalFilename string `json:"original_filename"`
		FileType         string `json:"file_type"`
		FileSize         int64  `json:"file_size"`
		PageCount        int    `json:"page_count,omitempty"`
		UploadDate       string `json:"upload_date"`
	}
	summaries := make([]docSummary, len(docs))
	for i, d := range docs {
		summaries[i] = docSummary{
			ID:               d.ID,
			OriginalFilename: d.OriginalFilename,
			FileType:         d.FileType,
			FileSize:         d.FileSize,
			PageCount:        d.PageCount,
			UploadDate:       d.UploadDate.Format(time.RFC3339),
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": summaries,
		"total":     len(summaries),
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if err := s.storage.DeleteDocument(r.Context(), docID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error("delete document failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleSearch serves a project-scoped search. The project's index is rebuilt
// from its current documents on every request, then queried. Rebuilding per
// view keeps the index trivially consistent with storage at the cost of
// re-embedding the corpus each time.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	// The sentinel distinguishes an omitted min_similarity from an explicit 0.
	req := models.SearchRequest{MinSimilarity: -1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MaxResults <= 0 {
		req.MaxResults = s.config.Search.DefaultLimit
	}
	if req.MinSimilarity < 0 {
		req.MinSimilarity = s.config.Search.DefaultMinSimilarity
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MaxResults > s.config.Search.MaxLimit {
		req.MaxResults = s.config.Search.MaxLimit
	}

	if _, err := s.storage.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "project not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	docs, err := s.storage.GetProjectDocuments(r.Context(), projectID)
	if err != nil {
		s.logger.Error("load project documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	var results []*models.SearchResult
	switch req.Mode {
	case models.ModeKeyword:
		if err := s.keyword.BuildProjectIndex(r.Context(), projectID, docs); err != nil {
			s.logger.Error("keyword index rebuild failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		results, err = s.keyword.Search(r.Context(), projectID, req.Query, req.MaxResults)
	default:
		if err := s.engine.LoadEmbeddingModel(); err != nil {
			s.logger.Error("embedding model load failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if err := s.engine.BuildProjectIndex(r.Context(), docs); err != nil {
			s.logger.Error("semantic index rebuild failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		results, err = s.engine.SearchProject(r.Context(), req.Query, req.MaxResults, req.Threshold())
	}
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []*models.SearchResult{}
	}

	s.respondJSON(w, http.StatusOK, &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		Query:     req.Query,
		Mode:      req.Mode,
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	if _, err := s.storage.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "project not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	pairs, err := s.storage.GetProjectQAPairs(r.Context(), projectID, limit)
	if err != nil {
		s.logger.Error("load QA pairs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"questions": pairs,
		"total":     len(pairs),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectCount, err := s.storage.CountProjects(ctx)
	if err != nil {
		s.logger.Error("status: count projects failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	qaCount, err := s.storage.CountQAPairs(ctx)
	if err != nil {
		s.logger.Error("status: count QA pairs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"projects":  projectCount,
		"documents": docCount,
		"qa_pairs":  qaCount,
		"index":     s.engine.Info(),
		"config": map[string]interface{}{
			"embedding_model":      s.config.Embedding.ModelName,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"database_path":        s.config.Storage.DatabasePath,
			"index_path":           s.config.Storage.IndexPath,
		},
	}
	if diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.IndexPath,
	); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
