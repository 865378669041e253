package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docchunk/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &doctree.DocTree{Title: titleFromFilename(filename)}
	if title := findTitle(doc); title != "" {
		tree.Title = title
	} else if og := findMeta(doc, "property", "og:title"); og != "" {
		tree.Title = og
	}
	if desc := findMeta(doc, "name", "description"); desc != "" {
		tree.Meta = map[string]string{"description": desc}
	}

	b := newTreeBuilder(tree.Title)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := collapseSpace(n.Data); t != "" {
				b.addBlock(t)
			}
			return
		}
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				b.heading(level, textContent(n))
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "noscript",
				"meta", "link", "template", "svg", "iframe":
				return
			case "p", "figcaption", "dd", "dt":
				b.addBlock(textContent(n))
				return
			case "blockquote":
				b.addBlock(prefixLines(textContent(n), "> "))
				return
			case "ul", "ol":
				b.addBlock(renderHTMLList(n, 0))
				return
			case "table":
				b.addBlock(renderHTMLTable(n))
				return
			case "pre":
				b.addBlock("```\n" + strings.Trim(rawContent(n), "\n") + "\n```")
				return
			}
			if isInlineOnly(n) {
				b.addBlock(textContent(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	tree.Children = b.finish()

	return tree, nil
}

// renderHTMLList emits one "- " or "N. " line per item, indenting nested
// lists two spaces per level.
func renderHTMLList(list *html.Node, depth int) string {
	ordered := list.Data == "ol"
	indent := strings.Repeat("  ", depth)
	var lines []string
	i := 1
	for li := list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", i)
		}
		var text strings.Builder
		var nested []string
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
				if sub := renderHTMLList(c, depth+1); sub != "" {
					nested = append(nested, sub)
				}
				continue
			}
			text.WriteString(" " + textContent(c))
		}
		lines = append(lines, indent+marker+collapseSpace(text.String()))
		lines = append(lines, nested...)
		i++
	}
	return strings.Join(lines, "\n")
}

func renderHTMLTable(table *html.Node) string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, textContent(c))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return pipeTable(rows)
}

var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "br": true, "cite": true, "code": true,
	"em": true, "i": true, "kbd": true, "mark": true, "q": true, "s": true,
	"small": true, "span": true, "strong": true, "sub": true, "sup": true,
	"time": true, "u": true,
}

// isInlineOnly reports whether n holds only text and inline elements, so its
// content reads as one paragraph.
func isInlineOnly(n *html.Node) bool {
	if n.FirstChild == nil {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && !inlineTags[c.Data] {
			return false
		}
	}
	return true
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// textContent returns the node's text with whitespace runs collapsed.
func textContent(n *html.Node) string {
	return collapseSpace(rawContent(n))
}

func rawContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// findMeta returns the content of the first <meta> whose attr equals value.
func findMeta(n *html.Node, attr, value string) string {
	if n.Type == html.ElementNode && n.Data == "meta" {
		var match bool
		var content string
		for _, a := range n.Attr {
			switch {
			case a.Key == attr && strings.EqualFold(a.Val, value):
				match = true
			case a.Key == "content":
				content = a.Val
			}
		}
		if match {
			return strings.TrimSpace(content)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if v := findMeta(c, attr, value); v != "" {
			return v
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
