package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings build the
// tree; block content is re-emitted in normalized markdown so lists and GFM
// tables survive for the segmenter.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}

	b := newTreeBuilder(tree.Title)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			b.heading(h.Level, inlineText(h, src))
			continue
		}
		b.addBlock(renderBlock(n, src))
	}
	tree.Children = b.finish()

	return tree, nil
}

// renderBlock re-emits one block node as markdown text.
func renderBlock(n ast.Node, src []byte) string {
	switch node := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return rawLines(n, src)
	case *ast.FencedCodeBlock:
		lang := string(node.Language(src))
		return "```" + lang + "\n" + strings.TrimRight(rawBlock(n, src), "\n") + "\n```"
	case *ast.CodeBlock:
		return strings.TrimRight(rawBlock(n, src), "\n")
	case *ast.List:
		return renderMarkdownList(node, src)
	case *ast.Blockquote:
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t := renderBlock(c, src); t != "" {
				parts = append(parts, t)
			}
		}
		return prefixLines(strings.Join(parts, "\n"), "> ")
	case *extast.Table:
		return renderMarkdownTable(node, src)
	case *ast.HTMLBlock:
		return strings.TrimSpace(rawBlock(n, src))
	case *ast.ThematicBreak:
		return ""
	case *ast.Heading:
		return strings.Repeat("#", node.Level) + " " + inlineText(node, src)
	}
	return ""
}

func renderMarkdownList(list *ast.List, src []byte) string {
	var lines []string
	i := 0
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		marker := string(list.Marker) + " "
		if list.IsOrdered() {
			marker = fmt.Sprintf("%d%c ", list.Start+i, list.Marker)
		}
		// Item paragraphs are folded onto the marker line so the segmenter
		// sees one line per item.
		var parts []string
		prevText := false
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			t := renderBlock(c, src)
			if t == "" {
				continue
			}
			switch c.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				t = strings.Join(strings.Fields(t), " ")
				if prevText {
					parts[len(parts)-1] += " " + t
					continue
				}
				prevText = true
			default:
				prevText = false
			}
			parts = append(parts, t)
		}
		body := strings.Join(parts, "\n")
		indent := strings.Repeat(" ", len(marker))
		for j, l := range strings.Split(body, "\n") {
			if j == 0 {
				lines = append(lines, marker+l)
			} else if l != "" {
				lines = append(lines, indent+l)
			}
		}
		i++
	}
	return strings.Join(lines, "\n")
}

func renderMarkdownTable(table *extast.Table, src []byte) string {
	var rows [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, inlineText(cell, src))
		}
		rows = append(rows, cells)
	}
	return pipeTable(rows)
}

// rawLines returns a block's source lines, right-trimmed.
func rawLines(n ast.Node, src []byte) string {
	lines := n.Lines()
	out := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(src)), " \t\r\n"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// rawBlock returns a block's source bytes verbatim (code keeps indentation).
func rawBlock(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

// inlineText concatenates the text of a node's inline descendants.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

func prefixLines(s, prefix string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// treeBuilder nests nodes by heading level with a stack, the way every
// heading-aware parser here builds its tree.
type treeBuilder struct {
	root    *doctree.DocNode
	stack   []stackEntry
	current []string
}

type stackEntry struct {
	node  *doctree.DocNode
	level int
}

func newTreeBuilder(title string) *treeBuilder {
	root := &doctree.DocNode{Title: title}
	return &treeBuilder{
		root:  root,
		stack: []stackEntry{{node: root, level: 0}},
	}
}

func (b *treeBuilder) flushText() {
	t := strings.TrimSpace(strings.Join(b.current, "\n\n"))
	if t != "" {
		top := b.stack[len(b.stack)-1].node
		if top.Text != "" {
			top.Text += "\n\n" + t
		} else {
			top.Text = t
		}
	}
	b.current = b.current[:0]
}

func (b *treeBuilder) heading(level int, title string) {
	b.flushText()
	newNode := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, newNode)
	b.stack = append(b.stack, stackEntry{node: newNode, level: level})
}

func (b *treeBuilder) addBlock(text string) {
	if text = strings.TrimSpace(text); text != "" {
		b.current = append(b.current, text)
	}
}

// finish returns the top-level nodes. Text before the first heading becomes
// a leading untitled node.
func (b *treeBuilder) finish() []*doctree.DocNode {
	b.flushText()
	children := b.root.Children
	if b.root.Text != "" {
		children = append([]*doctree.DocNode{{Text: b.root.Text}}, children...)
	}
	return children
}
