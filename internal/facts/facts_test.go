package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractKeepsOrderAndDropsNoise(t *testing.T) {
	text := "# Overview\n\n" +
		"The river is four hundred kilometers long. Too short. " +
		"Where does it end? The delta supports thousands of migratory birds!\n\n" +
		"| col | val |\n| --- | --- |\n| a long cell value here | 1 |\n\n" +
		"- The valley was settled during the bronze age\n"

	got := Extract(text, 0)
	require.Len(t, got, 3)
	assert.Equal(t, "The river is four hundred kilometers long.", got[0].Text)
	assert.Equal(t, "The delta supports thousands of migratory birds!", got[1].Text)
	assert.Equal(t, "The valley was settled during the bronze age", got[2].Text)
	for _, f := range got {
		assert.Equal(t, TypeStatement, f.Type)
	}
}

func TestExtractLimit(t *testing.T) {
	text := "The first statement is long enough. The second statement is long enough. The third statement is long enough."
	got := Extract(text, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "The second statement is long enough.", got[1].Text)
}

func TestExtractCollapsesWhitespace(t *testing.T) {
	got := Extract("The   sentence wraps\nacross two lines here.", 5)
	require.Len(t, got, 1)
	assert.Equal(t, "The sentence wraps across two lines here.", got[0].Text)
}

func TestExtractEmpty(t *testing.T) {
	assert.Empty(t, Extract("", 5))
	assert.NotNil(t, Extract("", 5))
}

func TestCards(t *testing.T) {
	facts := []Fact{{Text: "Alpha is the first letter of it.", Type: TypeStatement}, {Text: "Untyped fact text goes here."}}
	cards := Cards(facts, map[string]string{"url": "https://example.com/a", "title": "Letters"})

	require.Len(t, cards, 2)
	assert.Equal(t, Card{
		Fact:   "Alpha is the first letter of it.",
		Source: "https://example.com/a",
		Title:  "Letters",
		Type:   TypeStatement,
	}, cards[0])
	assert.Equal(t, TypeStatement, cards[1].Type)

	assert.Empty(t, Cards(nil, nil))
}
