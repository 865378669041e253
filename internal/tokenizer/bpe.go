package tokenizer

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is the BPE vocabulary used by OpenAI embedding models.
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

// BPE counts tokens with a tiktoken byte-pair encoding. The vocabulary is
// loaded from the embedded offline loader, so construction never touches the
// network. A BPE value is immutable after construction and safe for
// concurrent use.
type BPE struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewBPE loads the named encoding.
func NewBPE(encoding string) (*BPE, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &BPE{encoding: encoding, enc: enc}, nil
}

func (b *BPE) Name() string { return b.encoding }

func (b *BPE) Encode(text string) ([]int, error) {
	if !utf8.ValidString(text) {
		return nil, ErrInvalidUTF8
	}
	return b.enc.Encode(text, nil, nil), nil
}

func (b *BPE) CountTokens(text string) (int, error) {
	ids, err := b.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
