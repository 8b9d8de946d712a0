// Package extract provides text extraction from document files (PDF, DOCX, TXT).
package extract

import (
	"path/filepath"
	"strings"

	"github.com/HarshaParisha/insyte/internal/models"
)

// Result is the outcome of extracting one file. When Supported is false the
// extension is not handled; Text is empty and Meta records what is known about
// the file. That is a soft failure, not an error.
type Result struct {
	Text      string
	Supported bool
	Meta      models.DocumentMeta
}

// Extractor extracts plain text and metadata from document bytes.
// It is stateless; a single instance can be shared.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// supportedTypes are the extensions Extract dispatches on.
var supportedTypes = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
	".txt":  true,
}

// IsSupported reports whether the filename's extension is a supported format.
func (e *Extractor) IsSupported(filename string) bool {
	return supportedTypes[strings.ToLower(filepath.Ext(filename))]
}

// Extract converts file bytes plus a filename into plain text and metadata.
// Unsupported extensions yield Result.Supported == false and a nil error.
// Extraction failures on supported types (corrupt PDF/DOCX, undecodable text)
// are returned as errors; the caller is expected to catch per file so one bad
// file does not abort a batch.
func (e *Extractor) Extract(content []byte, filename string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	meta := models.DocumentMeta{
		FileType: ext,
		FileSize: int64(len(content)),
	}

	switch ext {
	case ".pdf":
		text, err := extractPDF(content, &meta)
		if err != nil {
			return nil, err
		}
		return &Result{Text: text, Supported: true, Meta: meta}, nil
	case ".docx", ".doc":
		text, err := extractDOCX(content, &meta)
		if err != nil {
			return nil, err
		}
		return &Result{Text: text, Supported: true, Meta: meta}, nil
	case ".txt":
		text, err := extractPlain(content)
		if err != nil {
			return nil, err
		}
		meta.Method = "plain"
		return &Result{Text: text, Supported: true, Meta: meta}, nil
	default:
		meta.Extra = map[string]string{"unsupported_type": ext}
		return &Result{Supported: false, Meta: meta}, nil
	}
}
