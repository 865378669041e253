// Package chunker splits cleaned documents into token-bounded chunks that
// follow the document's structure: headings, lists, tables and paragraphs.
//
// Chunking is a pure function of the text, the budget and the tokenizer.
// A Chunker holds no per-call state and may be shared across goroutines as
// long as its tokenizer is safe for concurrent use.
package chunker

import (
	"maps"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/tokenizer"
)

// Chunker binds a tokenizer to a validated budget.
type Chunker struct {
	tok    tokenizer.Tokenizer
	budget Budget
}

// New validates the budget and returns a chunker. It fails with a
// *ConfigError rather than producing a chunker that would misbehave.
func New(tok tokenizer.Tokenizer, budget Budget) (*Chunker, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, &ConfigError{Budget: budget, Reason: "tokenizer is required"}
	}
	return &Chunker{tok: tok, budget: budget}, nil
}

// Budget returns the chunker's budget.
func (c *Chunker) Budget() Budget { return c.budget }

// Tokenizer returns the tokenizer used for measuring.
func (c *Chunker) Tokenizer() tokenizer.Tokenizer { return c.tok }

// Chunk segments and packs text. Every chunk gets its own copy of meta and a
// 0-based Index in document order. Empty text yields no chunks. The only
// error is a *TokenizationError.
func (c *Chunker) Chunk(text string, meta map[string]string) ([]doctree.Chunk, error) {
	chunks, err := Pack(c.tok, Segment(text), c.budget)
	if err != nil {
		return nil, err
	}
	for i := range chunks {
		chunks[i].Index = i
		chunks[i].Metadata = maps.Clone(meta)
	}
	return chunks, nil
}

// ChunkTree renders a parsed document and chunks it. The tree title and any
// format-level metadata fill keys the caller left unset.
func (c *Chunker) ChunkTree(tree *doctree.DocTree, meta map[string]string) ([]doctree.Chunk, error) {
	if tree == nil {
		return nil, nil
	}
	merged := make(map[string]string, len(meta)+len(tree.Meta)+1)
	maps.Copy(merged, tree.Meta)
	if tree.Title != "" {
		if _, ok := merged["title"]; !ok {
			merged["title"] = tree.Title
		}
	}
	maps.Copy(merged, meta)
	return c.Chunk(doctree.Render(tree), merged)
}

// CountTokens measures text with the chunker's tokenizer.
func (c *Chunker) CountTokens(text string) (int, error) {
	return countTokens(c.tok, text)
}
