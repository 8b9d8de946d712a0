// Package qa derives question/answer pairs from document text using
// regex and keyword heuristics. It is deliberately not a language model:
// generation is cheap, offline, and deterministic, and the contract is narrow
// enough that a learned extractor could replace it without touching callers.
package qa

import (
	"regexp"
	"strings"

	"github.com/HarshaParisha/insyte/internal/models"
	"github.com/HarshaParisha/insyte/pkg/utils"
)

const (
	// minAnswerLength is the minimum viable answer length in characters.
	minAnswerLength = 100
	// maxAnswerLength truncates answers; they are never padded.
	maxAnswerLength = 500
	// defaultMaxPairs bounds generation when the caller passes no limit.
	defaultMaxPairs = 10
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)

	abstractRe = regexp.MustCompile(`(?is)abstract[:\s]+(.{100,800})`)
	introRe    = regexp.MustCompile(`(?is)introduction[:\s]+(.{100,800})`)

	definitionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\w+(?:\s+\w+){0,3})\s+is\s+(?:a|an|the)\s+(.{20,200})`),
		regexp.MustCompile(`(?i)(\w+(?:\s+\w+){0,3})\s+refers to\s+(.{20,200})`),
		regexp.MustCompile(`(?i)(\w+(?:\s+\w+){0,3})\s+means\s+(.{20,200})`),
	}

	topicKeywords  = []string{"about", "focuses on", "discusses", "covers", "examines", "explores"}
	methodKeywords = []string{"how", "process", "method", "approach", "technique", "system", "works"}
	factIndicators = []string{"important", "key", "critical", "essential", "main", "significant", "notable", "primary", "major"}

	// stopTerms are too generic to anchor a definition question.
	stopTerms = map[string]bool{"this": true, "that": true, "these": true, "those": true, "it": true}
)

// Generator produces QA pairs from extracted document text.
type Generator struct{}

// NewGenerator returns a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate returns at most maxPairs question/answer pairs derived from text.
// It never fails: text with no usable matches yields an empty or partial list.
// Stages run in priority order: document metadata, topic, definitions, methods.
func (g *Generator) Generate(text, filename string, maxPairs int) []models.QAPair {
	if maxPairs <= 0 {
		maxPairs = defaultMaxPairs
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var pairs []models.QAPair
	pairs = append(pairs, g.metadataQuestions(text, filename)...)
	pairs = append(pairs, g.topicQuestions(sentences)...)
	pairs = append(pairs, g.definitionQuestions(sentences)...)
	pairs = append(pairs, g.methodQuestions(sentences)...)

	if len(pairs) > maxPairs {
		pairs = pairs[:maxPairs]
	}
	return pairs
}

// splitSentences splits on sentence terminators and keeps trimmed fragments
// longer than 20 characters.
func splitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) > 20 {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// metadataQuestions asks about the document itself: what it is about
// (answered by an introduction extract) and its title or main topic
// (answered by the first meaningful line).
func (g *Generator) metadataQuestions(text, filename string) []models.QAPair {
	var pairs []models.QAPair

	if intro := extractIntroduction(text); intro != "" {
		pairs = append(pairs, models.QAPair{
			Question: "What is this document about?",
			Answer:   intro,
			Source:   filename,
		})
	}

	firstLine := strings.TrimSpace(utils.Truncate(strings.SplitN(text, "\n", 2)[0], 100))
	if len(firstLine) > 10 {
		pairs = append(pairs, models.QAPair{
			Question: "What is the title or main topic?",
			Answer:   firstLine,
			Source:   filename,
		})
	}
	return pairs
}

// topicQuestions scans the first 20 sentences for topic indicator keywords
// and produces at most one pair answered by the surrounding context.
func (g *Generator) topicQuestions(sentences []string) []models.QAPair {
	limit := min(len(sentences), 20)
	for i := 0; i < limit; i++ {
		lower := strings.ToLower(sentences[i])
		for _, keyword := range topicKeywords {
			if strings.Contains(lower, keyword) {
				answer := contextWindow(sentences, i, 2)
				if len(answer) >= minAnswerLength {
					return []models.QAPair{{
						Question: "What are the main topics covered?",
						Answer:   answer,
						Source:   "document",
					}}
				}
			}
		}
	}
	return nil
}

// definitionQuestions finds "X is a/an/the Y", "X refers to Y", and
// "X means Y" patterns in the first 30 sentences, capped at 3 pairs.
// Terms shorter than 5 characters or in the stoplist are skipped.
func (g *Generator) definitionQuestions(sentences []string) []models.QAPair {
	var pairs []models.QAPair
	limit := min(len(sentences), 30)
	for i := 0; i < limit; i++ {
		for _, pattern := range definitionPatterns {
			for _, match := range pattern.FindAllStringSubmatch(sentences[i], -1) {
				term := strings.TrimSpace(match[1])
				if len(term) < 5 || stopTerms[strings.ToLower(term)] {
					continue
				}
				answer := contextWindow(sentences, i, 2)
				if len(answer) < minAnswerLength {
					continue
				}
				pairs = append(pairs, models.QAPair{
					Question: "What is " + term + "?",
					Answer:   answer,
					Source:   "document",
				})
				if len(pairs) >= 3 {
					return pairs
				}
			}
		}
	}
	return pairs
}

// methodQuestions scans the first 30 sentences for process/method keywords
// and produces at most one pair with a wider context window.
func (g *Generator) methodQuestions(sentences []string) []models.QAPair {
	limit := min(len(sentences), 30)
	for i := 0; i < limit; i++ {
		lower := strings.ToLower(sentences[i])
		for _, keyword := range methodKeywords {
			if strings.Contains(lower, keyword) {
				answer := contextWindow(sentences, i, 3)
				if len(answer) >= minAnswerLength {
					return []models.QAPair{{
						Question: "How does the system/process work?",
						Answer:   answer,
						Source:   "document",
					}}
				}
				break
			}
		}
	}
	return nil
}

// extractIntroduction finds an introduction extract: a labeled Abstract or
// Introduction block when present, otherwise the first two non-trivial
// paragraphs. The result is truncated to the maximum answer length.
func extractIntroduction(text string) string {
	if m := abstractRe.FindStringSubmatch(text); len(m) > 1 {
		return utils.Truncate(strings.TrimSpace(m[1]), maxAnswerLength)
	}
	if m := introRe.FindStringSubmatch(text); len(m) > 1 {
		return utils.Truncate(strings.TrimSpace(m[1]), maxAnswerLength)
	}
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if len(p) > 50 {
			paragraphs = append(paragraphs, p)
			if len(paragraphs) == 2 {
				break
			}
		}
	}
	if len(paragraphs) == 0 {
		return ""
	}
	return utils.Truncate(strings.Join(paragraphs, " "), maxAnswerLength)
}

// contextWindow joins sentences[idx-size .. idx+size], truncated to the
// maximum answer length.
func contextWindow(sentences []string, idx, size int) string {
	start := max(idx-size, 0)
	end := min(idx+size+1, len(sentences))
	return utils.Truncate(strings.Join(sentences[start:end], " "), maxAnswerLength)
}

// KeyFacts extracts up to maxFacts key statements: sentences containing an
// importance indicator, falling back to the first substantial sentences.
func (g *Generator) KeyFacts(text string, maxFacts int) []string {
	if maxFacts <= 0 {
		maxFacts = 5
	}
	sentences := splitSentences(text)

	var facts []string
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		for _, indicator := range factIndicators {
			if strings.Contains(lower, indicator) && len(sentence) > 30 {
				facts = append(facts, sentence)
				break
			}
		}
		if len(facts) >= maxFacts {
			return facts
		}
	}
	if len(facts) == 0 {
		for _, s := range sentences {
			if len(s) > 50 {
				facts = append(facts, s)
			}
			if len(facts) >= maxFacts {
				break
			}
		}
	}
	return facts
}
