package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWords_CountTokens(t *testing.T) {
	n, err := Words{}.CountTokens("  one two\nthree\t four  ")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = Words{}.CountTokens("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWords_EncodeIsStable(t *testing.T) {
	a, err := Words{}.Encode("alpha beta alpha")
	require.NoError(t, err)
	require.Len(t, a, 3)
	assert.Equal(t, a[0], a[2])
	assert.NotEqual(t, a[0], a[1])

	b, err := Words{}.Encode("alpha beta alpha")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("hi"))
	assert.Equal(t, 133, EstimateTokens(repeatWord("word", 100)))
}

func TestEstimate_EncodeMatchesCount(t *testing.T) {
	text := repeatWord("token", 30)
	ids, err := Estimate{}.Encode(text)
	require.NoError(t, err)
	n, err := Estimate{}.CountTokens(text)
	require.NoError(t, err)
	assert.Len(t, ids, n)
}

func TestBPE_CountTokens(t *testing.T) {
	tok, err := NewBPE(DefaultEncoding)
	require.NoError(t, err)
	assert.Equal(t, DefaultEncoding, tok.Name())

	n, err := tok.CountTokens("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = tok.CountTokens("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBPE_InvalidUTF8(t *testing.T) {
	tok, err := NewBPE("")
	require.NoError(t, err)

	_, err = tok.CountTokens("bad \xff\xfe bytes")
	require.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"words", NameWords},
		{"WORDS", NameWords},
		{"estimate", NameEstimate},
		{"cl100k_base", DefaultEncoding},
		{"", DefaultEncoding},
	}
	for _, tt := range tests {
		tok, err := New(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, tok.Name(), tt.name)
	}

	_, err := New("sentencepiece")
	assert.Error(t, err)
}

func repeatWord(w string, n int) string {
	out := make([]byte, 0, n*(len(w)+1))
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, w...)
	}
	return string(out)
}
