package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string            // Document title (from metadata or filename)
	Meta     map[string]string // Format-level metadata, e.g. url, description
	Children []*DocNode        // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page/line (0 if N/A)
	Children []*DocNode // Subsections
}

// Chunk is a token-bounded text segment with a copy of its document's metadata.
type Chunk struct {
	Text     string            `json:"text"`
	Index    int               `json:"chunk_index"` // Sequence number within document
	Tokens   int               `json:"tokens"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Render flattens the tree into markdown-structured text. Node titles become
// ATX headings whose level follows tree depth, so every source format reaches
// the chunker in the same line-oriented shape.
func Render(tree *DocTree) string {
	if tree == nil {
		return ""
	}
	var parts []string
	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			if title := strings.TrimSpace(n.Title); title != "" {
				parts = append(parts, strings.Repeat("#", min(depth, 6))+" "+title)
			}
			if text := strings.TrimSpace(n.Text); text != "" {
				parts = append(parts, text)
			}
			walk(n.Children, depth+1)
		}
	}
	walk(tree.Children, 1)
	return strings.Join(parts, "\n\n")
}
