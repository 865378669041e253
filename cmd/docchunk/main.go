// Command docchunk chunks documents from the command line and serves the
// chunker as MCP tools over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/tokenizer"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	targetTokens  int
	minTokens     int
	maxTokens     int
	tokenizerName string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docchunk",
	Short: "Structure-aware document chunker",
	Long: `docchunk splits cleaned documents into token-bounded chunks that keep
headings with their text and never cut through a list or table.

Examples:
  # Chunk a markdown file into JSON lines
  docchunk chunk README.md

  # Chunk stdin with a smaller budget
  cat notes.txt | docchunk chunk --target 200 --min 100 --max 300

  # Show how a document segments
  docchunk segment guide.md

  # Serve chunk_text and friends to an MCP client
  docchunk mcp`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Defaults follow the server's environment variables.
	cfg := config.Load()
	rootCmd.PersistentFlags().IntVar(&targetTokens, "target", cfg.TargetTokens, "Target tokens per chunk")
	rootCmd.PersistentFlags().IntVar(&minTokens, "min", cfg.MinTokens, "Minimum tokens per chunk")
	rootCmd.PersistentFlags().IntVar(&maxTokens, "max", cfg.MaxTokens, "Maximum tokens per chunk")
	rootCmd.PersistentFlags().StringVar(&tokenizerName, "tokenizer", cfg.Tokenizer, "Tokenizer: a tiktoken encoding, \"words\" or \"estimate\"")

	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(segmentCmd)
	rootCmd.AddCommand(mcpCmd)
}

// newChunker builds a chunker from the global flags.
func newChunker() (*chunker.Chunker, error) {
	tok, err := tokenizer.New(tokenizerName)
	if err != nil {
		return nil, err
	}
	return chunker.New(tok, chunker.Budget{Target: targetTokens, Min: minTokens, Max: maxTokens})
}
