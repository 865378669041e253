package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
)

var segmentCmd = &cobra.Command{
	Use:   "segment [file]",
	Short: "Show the structural sections of a document",
	Long: `Print each section the chunker sees, with its kind and token count.
Useful for checking why a chunk boundary landed where it did.

Examples:
  docchunk segment guide.md
  docchunk segment --tokenizer words < notes.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSegment,
}

func runSegment(cmd *cobra.Command, args []string) error {
	c, err := newChunker()
	if err != nil {
		return err
	}
	name, data, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	text, err := renderInput(name, data)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, sec := range chunker.Segment(text) {
		n, err := c.CountTokens(sec.Text)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "--- section %d (%s, %d tokens)\n%s\n", sec.Index, sec.Kind, n, sec.Text)
	}
	return nil
}

// renderInput returns the text the chunker would segment for this input.
func renderInput(name string, data []byte) (string, error) {
	tree, err := parseInput(name, data)
	if err != nil || tree == nil {
		return string(data), err
	}
	return doctree.Render(tree), nil
}
