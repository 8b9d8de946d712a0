package models

import "time"

// Document is an extracted document owned by exactly one project.
// Content holds the extracted plain text, not the original file bytes.
type Document struct {
	ID               string       `json:"id" db:"id"`
	ProjectID        string       `json:"project_id" db:"project_id"`
	Filename         string       `json:"filename" db:"filename"` // storage key, unique per upload
	OriginalFilename string       `json:"original_filename" db:"original_filename"`
	FileType         string       `json:"file_type" db:"file_type"`
	Content          string       `json:"content" db:"content"`
	FileSize         int64        `json:"file_size" db:"file_size"`
	PageCount        int          `json:"page_count" db:"page_count"`
	UploadDate       time.Time    `json:"upload_date" db:"upload_date"`
	Metadata         DocumentMeta `json:"metadata" db:"metadata"`
}

// DocumentMeta is extraction metadata: a fixed set of known fields plus an
// open-ended Extra map for format-specific values.
type DocumentMeta struct {
	FileType       string            `json:"file_type,omitempty"`
	FileSize       int64             `json:"file_size,omitempty"`
	PageCount      int               `json:"page_count,omitempty"`
	ParagraphCount int               `json:"paragraph_count,omitempty"`
	TableCount     int               `json:"table_count,omitempty"`
	Method         string            `json:"extraction_method,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// QAPair is a heuristically derived question/answer extracted from one document.
// Pairs are regenerated and fully replaced whenever the document is reprocessed.
type QAPair struct {
	ID         string `json:"id" db:"id"`
	DocumentID string `json:"document_id" db:"document_id"`
	Question   string `json:"question" db:"question"`
	Answer     string `json:"answer" db:"answer"`
	Source     string `json:"source" db:"source"`
}
