package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/docchunk/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve chunking tools over MCP stdio",
	Long: `Run an MCP server on stdin/stdout exposing chunk_text, segment_text and
extract_facts. The global budget and tokenizer flags set the defaults.

Examples:
  docchunk mcp
  docchunk mcp --tokenizer o200k_base`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newChunker()
		if err != nil {
			return err
		}
		return mcpserver.New(c).Serve()
	},
}
