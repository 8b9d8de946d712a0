package search

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/HarshaParisha/insyte/internal/vector"
)

// indexState is the companion sidecar written next to the binary index file.
// It carries everything the index itself does not: the row-ordered texts and
// metadata, plus the model name so a load under a different model can warn.
type indexState struct {
	Documents  []string
	Metadata   []Metadata
	ModelName  string
	Dimensions int
}

// statePath derives the sidecar path from the index path: data/index.bin
// becomes data/index.meta.
func statePath(indexPath string) string {
	ext := filepath.Ext(indexPath)
	return strings.TrimSuffix(indexPath, ext) + ".meta"
}

// SaveIndex persists the index vectors and the sidecar state to the engine's
// configured index path.
func (e *Engine) SaveIndex() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index == nil {
		return ErrNotInitialized
	}
	if e.indexPath == "" {
		return fmt.Errorf("no index path configured")
	}
	if err := os.MkdirAll(filepath.Dir(e.indexPath), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := e.index.Save(e.indexPath); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}

	state := indexState{
		Documents:  e.documents,
		Metadata:   e.metadata,
		ModelName:  e.modelNameLocked(),
		Dimensions: e.index.Dimensions(),
	}
	f, err := os.Create(statePath(e.indexPath))
	if err != nil {
		return fmt.Errorf("failed to create index state file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(&state); err != nil {
		return fmt.Errorf("failed to encode index state: %w", err)
	}
	e.logger.Info("index saved",
		zap.String("path", e.indexPath),
		zap.Int("documents", len(e.documents)))
	return nil
}

// LoadIndex restores a previously saved index and sidecar state. A sidecar
// written under a different embedding model loads with a warning; similarity
// scores against the current model are then meaningless until a rebuild.
// Missing files are an error, unlike a fresh empty index.
func (e *Engine) LoadIndex() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexPath == "" {
		return fmt.Errorf("no index path configured")
	}

	f, err := os.Open(statePath(e.indexPath))
	if err != nil {
		return fmt.Errorf("failed to open index state file: %w", err)
	}
	defer f.Close()
	var state indexState
	if err := gob.NewDecoder(f).Decode(&state); err != nil {
		return fmt.Errorf("failed to decode index state: %w", err)
	}

	idx, err := vector.NewFlatIndex(state.Dimensions)
	if err != nil {
		return fmt.Errorf("restore index: %w", err)
	}
	if err := idx.Load(e.indexPath); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}
	if idx.Size() != len(state.Documents) {
		return fmt.Errorf("index/state mismatch: %d vectors, %d documents", idx.Size(), len(state.Documents))
	}

	current := e.modelNameLocked()
	if state.ModelName != "" && current != "" && state.ModelName != current {
		e.logger.Warn("index was built with a different embedding model",
			zap.String("index_model", state.ModelName),
			zap.String("current_model", current))
	}

	e.index = idx
	e.documents = state.Documents
	e.metadata = state.Metadata
	e.logger.Info("index loaded",
		zap.String("path", e.indexPath),
		zap.Int("documents", len(e.documents)))
	return nil
}
