package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// Issue kinds reported by VerifyBoundaries.
const (
	IssueTrailingFragment = "trailing_fragment"
	IssueLeadingFragment  = "leading_fragment"
)

// Issue describes a chunk edge that looks like it cuts through a sentence.
type Issue struct {
	ChunkIndex int    `json:"chunk_index"`
	Kind       string `json:"kind"`
	Excerpt    string `json:"excerpt"`
}

const terminalPunct = `.!?:;"')]*` + "`…"

// VerifyBoundaries flags chunks whose last line is prose that does not end
// in terminal punctuation, and chunks whose first line is prose starting
// with a lowercase letter. Headings, list items and table rows are
// structural edges and never flagged. It reports only; chunks are unchanged.
func VerifyBoundaries(chunks []doctree.Chunk) []Issue {
	var issues []Issue
	for _, c := range chunks {
		lines := strings.Split(strings.TrimSpace(c.Text), "\n")
		if len(lines) == 0 || lines[0] == "" {
			continue
		}

		first := strings.TrimSpace(lines[0])
		if isProseEdge(lines, 0) {
			r, _ := utf8.DecodeRuneInString(first)
			if unicode.IsLower(r) {
				issues = append(issues, Issue{ChunkIndex: c.Index, Kind: IssueLeadingFragment, Excerpt: head(first, 40)})
			}
		}

		lastIdx := len(lines) - 1
		last := strings.TrimSpace(lines[lastIdx])
		if isProseEdge(lines, lastIdx) && !strings.ContainsAny(lastRune(last), terminalPunct) {
			issues = append(issues, Issue{ChunkIndex: c.Index, Kind: IssueTrailingFragment, Excerpt: tail(last, 40)})
		}
	}
	return issues
}

func isProseEdge(lines []string, i int) bool {
	if isUnderline(lines[i]) {
		return false
	}
	return classifyLine(lines, i) == Prose
}

func lastRune(s string) string {
	r, _ := utf8.DecodeLastRuneInString(s)
	return string(r)
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n:])
}
