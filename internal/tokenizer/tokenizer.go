// Package tokenizer provides the token counters used to measure chunk sizes.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"
)

// Tokenizer measures text in model tokens. Only counts matter to the
// chunker; token identities are exposed for callers that need them.
// Implementations must be safe for concurrent use once constructed.
type Tokenizer interface {
	Name() string
	Encode(text string) ([]int, error)
	CountTokens(text string) (int, error)
}

const (
	NameWords    = "words"
	NameEstimate = "estimate"
)

// ErrInvalidUTF8 is returned when text cannot be byte-pair encoded.
var ErrInvalidUTF8 = errors.New("text is not valid utf-8")

// New returns the tokenizer registered under name. An empty name selects
// the cl100k_base BPE tokenizer.
func New(name string) (Tokenizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DefaultEncoding:
		return NewBPE(DefaultEncoding)
	case NameWords:
		return Words{}, nil
	case NameEstimate:
		return Estimate{}, nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", name)
	}
}
