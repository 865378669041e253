package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/parser"
)

var (
	chunkMeta   []string
	chunkVerify bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Chunk a document and print one JSON chunk per line",
	Long: `Chunk a file, or stdin when no file is given. Files with a supported
extension (.md, .html, .csv, .pdf, .docx, .txt) are parsed first so their
structure survives; anything else is chunked as plain text.

Examples:
  docchunk chunk guide.md
  docchunk chunk report.pdf --meta source=finance
  docchunk chunk --verify < notes.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().StringArrayVar(&chunkMeta, "meta", nil, "Metadata key=value copied onto every chunk (repeatable)")
	chunkCmd.Flags().BoolVar(&chunkVerify, "verify", false, "Report suspicious chunk boundaries on stderr")
}

func runChunk(cmd *cobra.Command, args []string) error {
	c, err := newChunker()
	if err != nil {
		return err
	}
	meta, err := parseMeta(chunkMeta)
	if err != nil {
		return err
	}

	name, data, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	chunks, err := chunkInput(c, name, data, meta)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, ch := range chunks {
		if err := enc.Encode(ch); err != nil {
			return err
		}
	}
	if chunkVerify {
		for _, issue := range chunker.VerifyBoundaries(chunks) {
			fmt.Fprintf(cmd.ErrOrStderr(), "chunk %d: %s: %q\n", issue.ChunkIndex, issue.Kind, issue.Excerpt)
		}
	}
	return nil
}

// chunkInput parses supported formats and chunks everything else as text.
func chunkInput(c *chunker.Chunker, name string, data []byte, meta map[string]string) ([]doctree.Chunk, error) {
	tree, err := parseInput(name, data)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return c.Chunk(string(data), meta)
	}
	return c.ChunkTree(tree, meta)
}

// parseInput returns nil for stdin and unsupported extensions.
func parseInput(name string, data []byte) (*doctree.DocTree, error) {
	if name == "" || !parser.IsSupportedExtension(name) {
		return nil, nil
	}
	p, err := parser.ForFile(name, parser.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return nil, err
	}
	tree, err := p.Parse(bytes.NewReader(data), name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return tree, nil
}

// readInput returns the file named in args, or stdin with an empty name.
func readInput(stdin io.Reader, args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		return "", data, err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, err
	}
	return args[0], data, nil
}

func parseMeta(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --meta %q: want key=value", kv)
		}
		meta[k] = v
	}
	return meta, nil
}
