package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
)

// BatchDoc is one in-memory document to chunk.
type BatchDoc struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// BatchResult holds the outcome for one BatchDoc. Exactly one of Chunks or
// Error is meaningful.
type BatchResult struct {
	ID        string          `json:"id"`
	Chunks    []doctree.Chunk `json:"chunks"`
	Issues    []chunker.Issue `json:"issues,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorKind string          `json:"error_kind,omitempty"`
}

// ChunkBatch chunks docs concurrently, at most limit at a time. Results are
// in input order. A failing document is reported in its own result and does
// not stop the others; documents not yet started when ctx ends are reported
// as canceled.
func ChunkBatch(ctx context.Context, c *chunker.Chunker, docs []BatchDoc, limit int, stats *Stats) []BatchResult {
	results := make([]BatchResult, len(docs))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, doc := range docs {
		g.Go(func() error {
			res := BatchResult{ID: doc.ID}
			if err := ctx.Err(); err != nil {
				res.Error, res.ErrorKind = err.Error(), ErrorKind(err)
				results[i] = res
				return nil
			}
			start := time.Now()
			chunks, err := c.Chunk(doc.Text, doc.Metadata)
			if stats != nil {
				stats.Record(time.Since(start), chunks, err)
			}
			if err != nil {
				res.Error, res.ErrorKind = err.Error(), ErrorKind(err)
			} else {
				res.Chunks = chunks
				res.Issues = chunker.VerifyBoundaries(chunks)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}
