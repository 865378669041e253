package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docchunk/internal/tokenizer"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("w ", n))
}

func TestPack_FreshChunkAfterOverflowWaitsForNextUnit(t *testing.T) {
	sections := []Section{
		{Index: 0, Text: words(300)},
		{Index: 1, Text: words(450)},
		{Index: 2, Text: words(40)},
	}
	chunks, err := Pack(tokenizer.Words{}, sections, Budget{Target: 400, Min: 300, Max: 500})
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, 300, chunks[0].Tokens)
	assert.Equal(t, 490, chunks[1].Tokens)
	assert.Equal(t, words(450)+"\n\n"+words(40), chunks[1].Text)
}

func TestPack_ClosesAtTarget(t *testing.T) {
	sections := []Section{
		{Text: words(60)},
		{Text: words(60)},
		{Text: words(10)},
	}
	chunks, err := Pack(tokenizer.Words{}, sections, Budget{Target: 100, Min: 50, Max: 150})
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, 120, chunks[0].Tokens)
	assert.Equal(t, 10, chunks[1].Tokens)
}

func TestPack_TrailingChunkMayBeBelowMin(t *testing.T) {
	chunks, err := Pack(tokenizer.Words{}, []Section{{Text: "tiny"}}, DefaultBudget())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, chunks[0].Tokens)
}

func TestPack_NoSections(t *testing.T) {
	chunks, err := Pack(tokenizer.Words{}, nil, DefaultBudget())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestPack_OversizedSectionSplitsAtParagraphs(t *testing.T) {
	text := words(90) + "\n\n" + words(90) + "\n   \n" + words(90)
	chunks, err := Pack(tokenizer.Words{}, []Section{{Text: text}}, Budget{Target: 100, Min: 50, Max: 150})
	require.NoError(t, err)

	// 90, then 90+90 > 150 flushes, and so on: one paragraph per chunk.
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, 90, c.Tokens)
		assert.NotContains(t, c.Text, "\n")
	}
}

// byteTokenizer counts one token per byte, so separators have a cost.
type byteTokenizer struct{}

func (byteTokenizer) Name() string { return "bytes" }
func (byteTokenizer) Encode(s string) ([]int, error) {
	out := make([]int, len(s))
	for i := range out {
		out[i] = int(s[i])
	}
	return out, nil
}
func (byteTokenizer) CountTokens(s string) (int, error) { return len(s), nil }

func TestPack_SeparatorsCountAgainstMax(t *testing.T) {
	sections := []Section{{Text: "aaaaa"}, {Text: "bbbbb"}, {Text: "ccc"}}
	chunks, err := Pack(byteTokenizer{}, sections, Budget{Target: 14, Min: 5, Max: 16})
	require.NoError(t, err)

	// 5 + 2 + 5 = 12, and adding "ccc" would make 17.
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaaa\n\nbbbbb", chunks[0].Text)
	assert.Equal(t, 12, chunks[0].Tokens)
	assert.Equal(t, "ccc", chunks[1].Text)
	assert.Equal(t, 3, chunks[1].Tokens)
}

func TestSplitParagraphs(t *testing.T) {
	got := splitParagraphs("a\n\n\nb\n  \nc\n\n")
	assert.Equal(t, []string{"a", "b", "c"}, got)

	assert.Empty(t, splitParagraphs("\n\n  \n"))
	assert.Equal(t, []string{"one\ntwo"}, splitParagraphs("one\ntwo"))
}
