package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/HarshaParisha/insyte/internal/models"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// tablesMarker separates paragraph text from appended table rows.
const tablesMarker = "--- Tables ---"

var (
	// wtTag matches <w:t>text</w:t> including any attributes on the tag.
	wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// wpBlock matches one paragraph element.
	wpBlock = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)
	// wtblBlock matches one table element.
	wtblBlock = regexp.MustCompile(`(?s)<w:tbl>.*?</w:tbl>`)
	// wtrBlock and wtcBlock match table rows and cells.
	wtrBlock = regexp.MustCompile(`(?s)<w:tr[ >].*?</w:tr>`)
	wtcBlock = regexp.MustCompile(`(?s)<w:tc>.*?</w:tc>`)

	// partNameRe extracts PartName from Override elements in [Content_Types].xml,
	// in either attribute order.
	partNameRe  = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

// extractDOCX extracts text from .docx bytes. DOCX is a ZIP containing
// word/document.xml (OOXML). Non-empty paragraph texts are joined with blank
// lines; table content is appended as pipe-delimited rows under a marker
// section. Paragraph and table counts are recorded in meta.
func extractDOCX(content []byte, meta *models.DocumentMeta) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}

	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return "", err
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}

	body := string(docXML)

	// Tables are pulled out first so their runs do not duplicate into paragraphs.
	tables := wtblBlock.FindAllString(body, -1)
	body = wtblBlock.ReplaceAllString(body, "")

	var paragraphs []string
	for _, p := range wpBlock.FindAllString(body, -1) {
		text := strings.TrimSpace(runText(p))
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	var tableRows []string
	for _, tbl := range tables {
		for _, tr := range wtrBlock.FindAllString(tbl, -1) {
			var cells []string
			for _, tc := range wtcBlock.FindAllString(tr, -1) {
				cells = append(cells, strings.TrimSpace(runText(tc)))
			}
			row := strings.Join(cells, " | ")
			if strings.TrimSpace(strings.ReplaceAll(row, "|", "")) != "" {
				tableRows = append(tableRows, row)
			}
		}
	}

	meta.ParagraphCount = len(paragraphs)
	meta.TableCount = len(tables)
	meta.Method = "docx"

	text := strings.Join(paragraphs, "\n\n")
	if len(tableRows) > 0 {
		if text != "" {
			text += "\n\n"
		}
		text += tablesMarker + "\n" + strings.Join(tableRows, "\n")
	}
	return text, nil
}

// runText concatenates all <w:t> run texts inside the given XML fragment.
// Runs within one paragraph join without separators, as a word processor renders them.
func runText(fragment string) string {
	parts := wtTag.FindAllStringSubmatch(fragment, -1)
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p[1])
	}
	return b.String()
}

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	content := string(data)
	if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	return ""
}

// readZipFile returns the contents of the named file, or nil if absent.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract DOCX: read %s: %w", f.Name, err)
		}
		return data, nil
	}
	return nil, nil
}
