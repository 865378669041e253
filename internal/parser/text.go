package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// TextParser handles plain text files. The text is already in the chunker's
// line-oriented shape, so it only normalizes whitespace.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	if text := normalizeText(sb.String()); text != "" {
		tree.Children = []*doctree.DocNode{{Text: text}}
	}
	return tree, nil
}
