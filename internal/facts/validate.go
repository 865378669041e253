package facts

import (
	"regexp"
	"strings"
)

const (
	minFactLen = 20
	maxFactLen = 300
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// whOpeners start sentences that read as questions even without a "?".
var whOpeners = map[string]bool{
	"what": true, "how": true, "why": true, "when": true, "where": true, "who": true,
}

// Valid reports whether a candidate sentence is kept as a fact. Length is
// measured without the terminal punctuation.
func Valid(sentence string) bool {
	s := strings.TrimSpace(sentence)
	if strings.HasSuffix(s, "?") {
		return false
	}
	body := strings.TrimRight(s, ".!?")
	if len(body) < minFactLen || len(body) > maxFactLen {
		return false
	}
	if opensWithWhWord(body) {
		return false
	}
	return !injectionPattern.MatchString(body)
}

func opensWithWhWord(s string) bool {
	first := strings.ToLower(strings.TrimFunc(firstWord(s), func(r rune) bool {
		return r == ',' || r == ':' || r == ';' || r == '"' || r == '\''
	}))
	return whOpeners[first]
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}
