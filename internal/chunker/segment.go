package chunker

import (
	"regexp"
	"strings"
)

// Kind is the structural role of a line, and of the section it opens.
type Kind int

const (
	Prose Kind = iota
	Heading
	ListItem
	TableRow
)

func (k Kind) String() string {
	switch k {
	case Heading:
		return "heading"
	case ListItem:
		return "list"
	case TableRow:
		return "table"
	default:
		return "prose"
	}
}

// Section is a contiguous run of lines sharing one structural regime.
type Section struct {
	Index int
	Kind  Kind
	Text  string
}

var (
	underlineRe = regexp.MustCompile(`^(?:={3,}|-{3,})$`)
	// Bullet, "12." ordinal, or "a)" lettered item.
	listItemRe = regexp.MustCompile(`^(?:[*+-]|\d+\.|[a-z]\))`)
)

// classifyLine assigns a structural kind to lines[i]. Setext headings need
// one line of lookahead.
func classifyLine(lines []string, i int) Kind {
	trimmed := strings.TrimSpace(lines[i])
	switch {
	case strings.HasPrefix(trimmed, "#"):
		return Heading
	case trimmed != "" && i+1 < len(lines) && isUnderline(lines[i+1]):
		return Heading
	case listItemRe.MatchString(trimmed):
		return ListItem
	case strings.Contains(trimmed, "|"):
		return TableRow
	default:
		return Prose
	}
}

func isUnderline(line string) bool {
	return underlineRe.MatchString(strings.TrimSpace(line))
}

// segmenter holds the state of one forward pass over a document.
type segmenter struct {
	sections []Section
	lines    []string
	kind     Kind
	open     bool
	// hasTable is set once a table row lands in the open section.
	hasTable bool
}

// Segment splits text into ordered sections. A heading opens a new section
// that absorbs the lines after it. A list block is closed by the first prose
// line. A table opens its own section, and everything after it stays in that
// section until a heading or list item starts another. Sections that are
// blank after trimming are dropped.
func Segment(text string) []Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var s segmenter
	prevHeading := false
	for i, line := range lines {
		// The underline of a setext heading stays with its title.
		if prevHeading && isUnderline(line) && s.kind == Heading {
			s.append(line, Heading)
			prevHeading = false
			continue
		}

		kind := classifyLine(lines, i)
		if kind == ListItem && s.hasTable && strings.Contains(line, "|") {
			// "---|---" delimiters and rows like "- | x" stay in the table.
			kind = TableRow
		}
		prevHeading = kind == Heading

		switch kind {
		case Heading:
			s.start(Heading)
		case ListItem:
			if !s.inList() {
				s.start(ListItem)
			}
		case TableRow:
			if !s.hasTable {
				s.start(TableRow)
			}
		default:
			if s.inList() {
				s.start(Prose)
			}
		}
		s.append(line, kind)
	}
	s.close()
	return s.sections
}

func (s *segmenter) inList() bool {
	return s.open && s.kind == ListItem
}

func (s *segmenter) start(kind Kind) {
	s.close()
	s.kind = kind
	s.open = true
}

func (s *segmenter) append(line string, kind Kind) {
	if !s.open {
		s.start(Prose)
	}
	if kind == TableRow {
		s.hasTable = true
	}
	s.lines = append(s.lines, line)
}

func (s *segmenter) close() {
	if !s.open {
		return
	}
	text := trimBlankLines(s.lines)
	if strings.TrimSpace(text) != "" {
		s.sections = append(s.sections, Section{
			Index: len(s.sections),
			Kind:  s.kind,
			Text:  text,
		})
	}
	s.lines = s.lines[:0]
	s.open = false
	s.hasTable = false
}

// trimBlankLines joins lines after dropping leading and trailing blank ones.
// Indentation of the first kept line is preserved.
func trimBlankLines(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	out := make([]string, 0, end-start)
	for _, l := range lines[start:end] {
		out = append(out, strings.TrimRight(l, " \t\r"))
	}
	return strings.Join(out, "\n")
}
