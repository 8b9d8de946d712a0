package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/HarshaParisha/insyte/internal/models"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
		{"JSON", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		s        string
		maxWords int
		want     string
	}{
		{"one two three", 5, "one two three"},
		{"one two three", 3, "one two three"},
		{"one two three four", 2, "one two..."},
		{"", 3, ""},
		{"  spaced   out  ", 1, "spaced..."},
	}
	for _, tt := range tests {
		if got := TruncateWords(tt.s, tt.maxWords); got != tt.want {
			t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
		}
	}
}

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Results: []*models.SearchResult{
			{
				DocumentID:           "d1",
				Filename:             "report.pdf",
				FileType:             "pdf",
				Text:                 "quarterly revenue grew ahead of forecast",
				Score:                0.82,
				SimilarityPercentage: 82,
				Relevance:            models.RelevanceHigh,
			},
		},
		Total:     1,
		Query:     "revenue",
		Mode:      models.ModeSemantic,
		QueryTime: 12,
	}
}

func TestWriteSearchResultsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Found 1 results in 12ms (semantic mode)") {
		t.Errorf("header missing: %q", out)
	}
	if !strings.Contains(out, "report.pdf (pdf) - 82% high") {
		t.Errorf("result line missing: %q", out)
	}
	for _, r := range out {
		if r > 0x7F && r != '─' {
			t.Errorf("non-ASCII rune %q in output: %q", r, out)
		}
	}
}

func TestWriteSearchResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Total != 1 || decoded.Results[0].Filename != "report.pdf" {
		t.Errorf("round trip: %+v", decoded)
	}
}

func TestWriteProjectsText(t *testing.T) {
	projects := []*models.Project{
		{ID: "p1", Name: "alpha", DocumentCount: 3, Description: "first project"},
		{ID: "p2", Name: "beta"},
	}
	var buf bytes.Buffer
	if err := WriteProjects(&buf, projects, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "alpha") || !strings.Contains(out, "(3 documents)") {
		t.Errorf("project line missing: %q", out)
	}
	if !strings.Contains(out, "first project") {
		t.Errorf("description missing: %q", out)
	}

	buf.Reset()
	if err := WriteProjects(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No projects.") {
		t.Errorf("empty listing: %q", buf.String())
	}
}

func TestWriteUploadReportText(t *testing.T) {
	report := &models.UploadReport{}
	report.Add(&models.FileResult{Filename: "good.txt", Success: true, QAPairs: 4})
	report.Add(&models.FileResult{Filename: "bad.xlsx", Error: "unsupported file type: .xlsx"})

	var buf bytes.Buffer
	if err := WriteUploadReport(&buf, report, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Uploaded 1 file(s), 1 failed") {
		t.Errorf("summary missing: %q", out)
	}
	if !strings.Contains(out, "ok    good.txt (4 questions)") {
		t.Errorf("success line missing: %q", out)
	}
	if !strings.Contains(out, "fail  bad.xlsx: unsupported file type: .xlsx") {
		t.Errorf("failure line missing: %q", out)
	}
}

func TestWriteQuestionsText(t *testing.T) {
	pairs := []*models.QAPair{
		{Question: "What is this document about?", Answer: "It covers the annual budget.", Source: "introduction"},
	}
	var buf bytes.Buffer
	if err := WriteQuestions(&buf, pairs, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "1. Q: What is this document about?") {
		t.Errorf("question missing: %q", out)
	}
	if !strings.Contains(out, "(source: introduction)") {
		t.Errorf("source missing: %q", out)
	}

	buf.Reset()
	if err := WriteQuestions(&buf, nil, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No questions generated yet") {
		t.Errorf("empty listing: %q", buf.String())
	}
}
