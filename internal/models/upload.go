package models

// FileResult is the per-file outcome of a batch upload.
type FileResult struct {
	Filename   string `json:"filename"`
	DocumentID string `json:"document_id,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	QAPairs    int    `json:"qa_pairs,omitempty"`
}

// UploadReport summarizes a batch upload. A failed file never aborts the
// batch; it is recorded here and the remaining files are still processed.
type UploadReport struct {
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
	Files        []*FileResult `json:"files"`
}

// Add records one file outcome and updates the counts.
func (r *UploadReport) Add(f *FileResult) {
	r.Files = append(r.Files, f)
	if f.Success {
		r.SuccessCount++
	} else {
		r.FailureCount++
	}
}
