// Package mcpserver exposes the chunker as MCP tools over stdio so agents
// can split text without running the HTTP service.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/facts"
)

const (
	ServerName    = "docchunk"
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server around a chunker.
type Server struct {
	mcp     *server.MCPServer
	chunker *chunker.Chunker
}

// New registers the tools against c.
func New(c *chunker.Chunker) *Server {
	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		chunker: c,
	}
	s.mcp.AddTool(chunkTextTool(), s.handleChunkText)
	s.mcp.AddTool(segmentTextTool(), s.handleSegmentText)
	s.mcp.AddTool(extractFactsTool(), s.handleExtractFacts)
	return s
}

// Serve runs on stdio until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func chunkTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_text",
		Description: "Split text into structure-aware chunks within a token budget",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "Cleaned document text",
				},
				"metadata": map[string]any{
					"type":                 "object",
					"description":          "String metadata copied onto every chunk",
					"additionalProperties": map[string]any{"type": "string"},
				},
				"target_tokens": map[string]any{"type": "integer", "description": "Overrides the default target"},
				"min_tokens":    map[string]any{"type": "integer", "description": "Overrides the default minimum"},
				"max_tokens":    map[string]any{"type": "integer", "description": "Overrides the default maximum"},
			},
			Required: []string{"text"},
		},
	}
}

func segmentTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "segment_text",
		Description: "Show how text splits into heading, list, table and prose sections",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"text": map[string]any{"type": "string", "description": "Cleaned document text"},
			},
			Required: []string{"text"},
		},
	}
}

func extractFactsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "extract_facts",
		Description: "Pull standalone declarative sentences out of text",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"text": map[string]any{"type": "string", "description": "Document or chunk text"},
				"max": map[string]any{
					"type":        "integer",
					"description": "Maximum number of facts",
					"default":     facts.DefaultMax,
				},
			},
			Required: []string{"text"},
		},
	}
}

func (s *Server) handleChunkText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	text, ok := args["text"].(string)
	if !ok {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	c := s.chunker
	b := c.Budget()
	b.Target = intArg(args, "target_tokens", b.Target)
	b.Min = intArg(args, "min_tokens", b.Min)
	b.Max = intArg(args, "max_tokens", b.Max)
	if b != c.Budget() {
		var err error
		if c, err = chunker.New(c.Tokenizer(), b); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	chunks, err := c.Chunk(text, stringMap(args["metadata"]))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"chunks":    chunks,
		"issues":    chunker.VerifyBoundaries(chunks),
		"budget":    c.Budget(),
		"tokenizer": c.Tokenizer().Name(),
	})
}

func (s *Server) handleSegmentText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, ok := req.GetArguments()["text"].(string)
	if !ok {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	type section struct {
		Index  int    `json:"index"`
		Kind   string `json:"kind"`
		Tokens int    `json:"tokens"`
		Text   string `json:"text"`
	}
	var out []section
	for _, sec := range chunker.Segment(text) {
		n, err := s.chunker.CountTokens(sec.Text)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out = append(out, section{Index: sec.Index, Kind: sec.Kind.String(), Tokens: n, Text: sec.Text})
	}
	return jsonResult(map[string]any{"sections": out})
}

func (s *Server) handleExtractFacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	text, ok := args["text"].(string)
	if !ok {
		return mcp.NewToolResultError("text parameter is required"), nil
	}
	return jsonResult(map[string]any{
		"facts": facts.Extract(text, intArg(args, "max", facts.DefaultMax)),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// intArg reads an integer argument. JSON numbers decode as float64.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func stringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
