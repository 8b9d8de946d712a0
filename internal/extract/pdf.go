package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/HarshaParisha/insyte/internal/models"
)

// extractPDF extracts text page by page, joining pages with a page-boundary
// marker and recording the page count. The plain-text backend is tried first;
// if it fails the row-based backend is tried with the same output contract.
// If both fail the error propagates to the caller.
func extractPDF(content []byte, meta *models.DocumentMeta) (string, error) {
	text, err := pdfPlainText(content, meta)
	if err == nil {
		meta.Method = "pdf-plaintext"
		return text, nil
	}
	text, rowErr := pdfTextByRow(content, meta)
	if rowErr != nil {
		return "", fmt.Errorf("extract PDF: %w (row fallback: %v)", err, rowErr)
	}
	meta.Method = "pdf-rows"
	return text, nil
}

func pdfPlainText(content []byte, meta *models.DocumentMeta) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	meta.PageCount = numPages

	var parts []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", i, pageText))
	}
	return strings.Join(parts, "\n\n"), nil
}

// pdfTextByRow reads text row by row, which recovers content from some PDFs
// whose font encoding breaks the plain-text path.
func pdfTextByRow(content []byte, meta *models.DocumentMeta) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	numPages := r.NumPage()
	meta.PageCount = numPages

	var parts []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("extract page %d rows: %w", i, err)
		}
		var b strings.Builder
		for _, row := range rows {
			for _, word := range row.Content {
				b.WriteString(word.S)
				b.WriteByte(' ')
			}
			b.WriteByte('\n')
		}
		pageText := strings.TrimSpace(b.String())
		if pageText == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", i, pageText))
	}
	return strings.Join(parts, "\n\n"), nil
}
