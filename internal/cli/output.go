// Package cli provides output formatting for the Insyte command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/HarshaParisha/insyte/internal/models"
)

// OutputFormat selects how command output is rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results in %dms (%s mode)\n\n",
		response.Total, response.QueryTime, response.Mode)
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. %s (%s) - %d%% %s\n",
			i+1, result.Filename, result.FileType,
			result.SimilarityPercentage, result.Relevance)
		fmt.Fprintf(w, "\n%s\n\n", TruncateWords(result.Text, 60))
	}
	return nil
}

// WriteProjects writes a project listing.
func WriteProjects(w io.Writer, projects []*models.Project, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, projects)
	}
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects.")
		return nil
	}
	for _, p := range projects {
		fmt.Fprintf(w, "%s  %s  (%d documents)\n", p.ID, p.Name, p.DocumentCount)
		if p.Description != "" {
			fmt.Fprintf(w, "    %s\n", p.Description)
		}
	}
	return nil
}

// WriteUploadReport writes the per-file outcome of an upload batch.
func WriteUploadReport(w io.Writer, report *models.UploadReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	fmt.Fprintf(w, "Uploaded %d file(s), %d failed\n", report.SuccessCount, report.FailureCount)
	for _, f := range report.Files {
		if f.Success {
			fmt.Fprintf(w, "  ok    %s (%d questions)\n", f.Filename, f.QAPairs)
		} else {
			fmt.Fprintf(w, "  fail  %s: %s\n", f.Filename, f.Error)
		}
	}
	return nil
}

// WriteQuestions writes generated question/answer pairs.
func WriteQuestions(w io.Writer, pairs []*models.QAPair, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, pairs)
	}
	if len(pairs) == 0 {
		fmt.Fprintln(w, "No questions generated yet. Upload documents first.")
		return nil
	}
	for i, p := range pairs {
		fmt.Fprintf(w, "%d. Q: %s\n", i+1, p.Question)
		fmt.Fprintf(w, "   A: %s\n", TruncateWords(p.Answer, 50))
		if p.Source != "" {
			fmt.Fprintf(w, "   (source: %s)\n", p.Source)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
