package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"clauseguard-backend/models"
)

// MinSpanLength is the shortest span kept as a clause on its own. Shorter
// spans (headings, numbering) are merged with their neighbour.
const MinSpanLength = 50

var blankLines = regexp.MustCompile(`\n[ \t\f\v]*\n`)

// Split turns raw document text into unclassified clauses using paragraph
// boundaries. It is used when no structured extractor is available.
func Split(text string) []models.Clause {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var spans []string
	for _, raw := range blankLines.Split(text, -1) {
		if s := strings.TrimSpace(raw); s != "" {
			spans = append(spans, s)
		}
	}

	merged := make([]string, 0, len(spans))
	pending := ""
	for _, s := range spans {
		if pending != "" {
			s = pending + "\n" + s
			pending = ""
		}
		if utf8.RuneCountInString(s) < MinSpanLength {
			pending = s
			continue
		}
		merged = append(merged, s)
	}
	if pending != "" {
		if n := len(merged); n > 0 {
			merged[n-1] = merged[n-1] + "\n" + pending
		} else {
			merged = append(merged, pending)
		}
	}

	clauses := make([]models.Clause, len(merged))
	for i, s := range merged {
		clauses[i] = models.Clause{Content: s, Position: i}
	}
	return clauses
}
