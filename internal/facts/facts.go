// Package facts pulls short declarative sentences out of chunk text and
// turns them into display cards that cite their source document.
package facts

import (
	"regexp"
	"strings"
)

// DefaultMax is the fact limit used when Extract is given a limit <= 0.
const DefaultMax = 10

// TypeStatement is the only fact type the heuristic extractor produces.
const TypeStatement = "statement"

// Fact is a sentence that reads as a standalone statement.
type Fact struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// Card is a fact with its source attached.
type Card struct {
	Fact   string `json:"fact"`
	Source string `json:"source"`
	Title  string `json:"title"`
	Type   string `json:"type"`
}

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]*`)

// Extract returns up to limit facts from text in order of appearance.
// Headings and table rows are not sentences and are skipped.
func Extract(text string, limit int) []Fact {
	if limit <= 0 {
		limit = DefaultMax
	}
	facts := []Fact{}
	for _, block := range proseBlocks(text) {
		for _, sentence := range sentenceRe.FindAllString(block, -1) {
			sentence = strings.Join(strings.Fields(sentence), " ")
			if !Valid(sentence) {
				continue
			}
			facts = append(facts, Fact{Text: sentence, Type: TypeStatement})
			if len(facts) >= limit {
				return facts
			}
		}
	}
	return facts
}

// Cards attaches the document's url and title to each fact.
func Cards(facts []Fact, meta map[string]string) []Card {
	cards := make([]Card, 0, len(facts))
	for _, f := range facts {
		typ := f.Type
		if typ == "" {
			typ = TypeStatement
		}
		cards = append(cards, Card{
			Fact:   f.Text,
			Source: meta["url"],
			Title:  meta["title"],
			Type:   typ,
		})
	}
	return cards
}

// proseBlocks groups consecutive prose lines. Headings, table rows, code
// fences and blank lines end a block; each list item is a block of its own.
func proseBlocks(text string) []string {
	var blocks, cur []string
	flush := func() {
		if len(cur) > 0 {
			blocks = append(blocks, strings.Join(cur, " "))
			cur = cur[:0]
		}
	}
	for _, line := range strings.Split(text, "\n") {
		t := strings.TrimSpace(line)
		switch {
		case t == "", strings.HasPrefix(t, "#"), strings.HasPrefix(t, "|"), strings.HasPrefix(t, "```"):
			flush()
			continue
		case strings.HasPrefix(t, "- "), strings.HasPrefix(t, "* "), strings.HasPrefix(t, "> "):
			flush()
			t = t[2:]
		}
		cur = append(cur, t)
	}
	flush()
	return blocks
}
