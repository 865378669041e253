package chunker

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/tokenizer"
)

// Budget bounds chunk sizes in tokens. A chunk is closed as soon as it
// reaches Target; Max is only exceeded by a single paragraph that cannot be
// split further, and the last chunk of a document may fall below Min.
type Budget struct {
	Target int `json:"target_tokens"`
	Min    int `json:"min_tokens"`
	Max    int `json:"max_tokens"`
}

// DefaultBudget returns the 500/300/800 budget.
func DefaultBudget() Budget {
	return Budget{Target: 500, Min: 300, Max: 800}
}

// Validate enforces 0 < min < target < max.
func (b Budget) Validate() error {
	switch {
	case b.Min <= 0 || b.Target <= 0 || b.Max <= 0:
		return &ConfigError{Budget: b, Reason: "all limits must be positive"}
	case b.Min >= b.Target:
		return &ConfigError{Budget: b, Reason: "min_tokens must be below target_tokens"}
	case b.Target >= b.Max:
		return &ConfigError{Budget: b, Reason: "target_tokens must be below max_tokens"}
	}
	return nil
}

var paragraphBreakRe = regexp.MustCompile(`\n(?:[ \t]*\n)+`)

// splitParagraphs splits on blank lines, dropping empty paragraphs.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreakRe.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

const partSeparator = "\n\n"

// accumulator holds the parts of the chunk being built. tokens includes the
// separators between parts.
type accumulator struct {
	parts  []string
	tokens int
}

type packer struct {
	tok    tokenizer.Tokenizer
	budget Budget
	sep    int
	acc    accumulator
	chunks []doctree.Chunk
}

// Pack greedily merges sections into chunks. Sections over budget.Max are
// split at paragraph boundaries and never below them. Each chunk's Tokens is
// the count of its joined text. The returned chunks carry text and token
// counts only; Index and Metadata are left to the caller.
func Pack(tok tokenizer.Tokenizer, sections []Section, budget Budget) ([]doctree.Chunk, error) {
	if len(sections) == 0 {
		return nil, nil
	}
	sep, err := countTokens(tok, partSeparator)
	if err != nil {
		return nil, err
	}
	p := &packer{tok: tok, budget: budget, sep: sep}
	for _, sec := range sections {
		n, err := countTokens(tok, sec.Text)
		if err != nil {
			return nil, err
		}
		if n <= budget.Max {
			if err := p.add(sec.Text, n); err != nil {
				return nil, err
			}
			continue
		}
		for _, para := range splitParagraphs(sec.Text) {
			pn, err := countTokens(tok, para)
			if err != nil {
				return nil, err
			}
			if err := p.add(para, pn); err != nil {
				return nil, err
			}
		}
	}
	if err := p.flush(); err != nil {
		return nil, err
	}
	return p.chunks, nil
}

// add appends one unit to the accumulator, closing the current chunk first
// when the unit and its separator would push it past Max, and closing after
// it once Target is reached. A unit that starts a fresh chunk because of Max
// is not closed at Target until the next unit arrives.
func (p *packer) add(text string, tokens int) error {
	if len(p.acc.parts) > 0 && p.acc.tokens+p.sep+tokens > p.budget.Max {
		if err := p.flush(); err != nil {
			return err
		}
		p.acc.parts = append(p.acc.parts, text)
		p.acc.tokens = tokens
		return nil
	}
	if len(p.acc.parts) > 0 {
		p.acc.tokens += p.sep
	}
	p.acc.parts = append(p.acc.parts, text)
	p.acc.tokens += tokens
	if p.acc.tokens >= p.budget.Target {
		return p.flush()
	}
	return nil
}

// flush closes the accumulator as a chunk. Its size is measured on the
// joined text, since BPE merges across part boundaries can shift the count
// away from the running estimate.
func (p *packer) flush() error {
	if len(p.acc.parts) == 0 {
		return nil
	}
	text := strings.Join(p.acc.parts, partSeparator)
	n := p.acc.tokens
	if len(p.acc.parts) > 1 {
		var err error
		if n, err = countTokens(p.tok, text); err != nil {
			return err
		}
	}
	p.chunks = append(p.chunks, doctree.Chunk{Text: text, Tokens: n})
	p.acc = accumulator{}
	return nil
}

func countTokens(tok tokenizer.Tokenizer, text string) (int, error) {
	n, err := tok.CountTokens(text)
	if err != nil {
		return 0, &TokenizationError{Tokenizer: tok.Name(), Err: err}
	}
	return n, nil
}
