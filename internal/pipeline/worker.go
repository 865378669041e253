package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/indexclient"
	"github.com/dgallion1/docchunk/internal/parser"
	"github.com/dgallion1/docchunk/internal/store"
)

// Registry is the part of the document registry the pipeline writes to.
type Registry interface {
	PutDocument(ctx context.Context, doc store.Document, chunks []doctree.Chunk) ([]store.StoredChunk, error)
	FindByHash(ctx context.Context, hash string) (*store.Document, error)
	SetStatus(ctx context.Context, id, status string) error
}

// Indexer pushes stored chunks to the vector index.
type Indexer interface {
	UpsertChunks(ctx context.Context, namespace, docID string, records []indexclient.Record) (int, error)
}

// Worker processes a single document job.
type Worker struct {
	chunker    *chunker.Chunker
	registry   Registry
	index      Indexer
	namespace  string
	parserOpts parser.Options
	stats      *Stats
	log        *slog.Logger

	backoff func(int) time.Duration
}

// NewWorker builds a worker. A nil index disables the indexing stage.
func NewWorker(c *chunker.Chunker, reg Registry, index Indexer, namespace string, opts parser.Options, stats *Stats, log *slog.Logger) *Worker {
	return &Worker{
		chunker:    c,
		registry:   reg,
		index:      index,
		namespace:  namespace,
		parserOpts: opts,
		stats:      stats,
		log:        log,
		backoff:    Backoff,
	}
}

// Process runs parse, hash, dedup, chunk, verify, store and index for a job.
// Every failure is recorded on the job; Process itself never fails.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		w.fail(log, job, "parsing", err)
		return
	}
	tree, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	job.releaseFileData()
	if err != nil {
		w.fail(log, job, "parsing", fmt.Errorf("parse: %w", err))
		return
	}
	if job.Title != "" {
		tree.Title = job.Title
	}

	// The hash covers the rendered text, so formatting-only changes to the
	// source file still dedup.
	text := doctree.Render(tree)
	job.SetContentHash(ContentHashHex([]byte(text)))

	// Phase 1.5: Dedup check
	existing, err := w.registry.FindByHash(ctx, job.ContentHash)
	switch {
	case err != nil:
		log.Warn("dedup check failed, proceeding", "error", err)
	case existing != nil && !job.Force && w.isComplete(existing):
		log.Info("duplicate document, skipping", "existing_doc_id", existing.ID)
		job.SetDocID(existing.ID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	case existing != nil:
		// Re-chunk in place so the registry keeps one row per content.
		job.SetDocID(existing.ID)
		log = log.With("doc_id", existing.ID)
	}

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	meta := maps.Clone(job.Metadata)
	if meta == nil {
		meta = map[string]string{}
	}
	meta["doc_id"] = job.DocID
	if job.URL != "" {
		meta["url"] = job.URL
	}

	start := time.Now()
	chunks, err := w.chunker.ChunkTree(tree, meta)
	w.stats.Record(time.Since(start), chunks, err)
	if err != nil {
		w.fail(log, job, "chunking", err)
		return
	}
	if len(chunks) == 0 {
		w.fail(log, job, "chunking", errors.New("no extractable content"))
		return
	}

	issues := chunker.VerifyBoundaries(chunks)
	job.SetTotalChunks(len(chunks), len(issues))
	log.Info("chunked document", "chunks", len(chunks), "boundary_issues", len(issues))
	for _, is := range issues {
		log.Debug("boundary issue", "chunk", is.ChunkIndex, "kind", is.Kind, "excerpt", is.Excerpt)
	}

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	title := tree.Title
	if t := chunks[0].Metadata["title"]; t != "" {
		title = t
	}
	url := job.URL
	if url == "" {
		url = job.Filename
	}
	stored, err := w.registry.PutDocument(ctx, store.Document{
		ID:          job.DocID,
		URL:         url,
		Title:       title,
		ContentHash: job.ContentHash,
		Status:      store.StatusProcessed,
		CreatedAt:   job.CreatedAt,
	}, chunks)
	if err != nil {
		w.fail(log, job, "storing", fmt.Errorf("store: %w", err))
		return
	}
	job.SetChunksStored(len(stored))

	// Phase 4: Index
	if w.index == nil {
		log.Info("indexing disabled, document stored", "chunks", len(stored))
		job.SetStatus(StatusCompleted, "done")
		return
	}
	job.SetStatus(StatusIndexing, "indexing")
	records := make([]indexclient.Record, len(stored))
	for i, c := range stored {
		md := maps.Clone(c.Metadata)
		if md == nil {
			md = map[string]string{}
		}
		md["chunk_index"] = fmt.Sprint(c.Index)
		records[i] = indexclient.Record{ID: c.ID, Text: c.Text, Metadata: md}
	}

	var indexed int
	err = withRetry(ctx, w.backoff,
		func(attempt int, err error) {
			log.Warn("retryable index error", "attempt", attempt, "error", err)
		},
		func() error {
			var err error
			indexed, err = w.index.UpsertChunks(ctx, w.namespace, job.DocID, records)
			return err
		})
	if err != nil {
		w.fail(log, job, "indexing", fmt.Errorf("index: %w", err))
		return
	}
	job.SetChunksIndexed(indexed)

	if err := w.registry.SetStatus(ctx, job.DocID, store.StatusIndexed); err != nil {
		log.Error("status update failed", "error", err)
		job.AddError(fmt.Sprintf("status: %s", err))
	}
	log.Info("document indexed", "namespace", w.namespace, "records", indexed)
	job.SetStatus(StatusCompleted, "done")
}

// isComplete reports whether an existing document went through every stage
// this worker would run. A document stored while the index was unreachable
// is chunked again so it gets indexed.
func (w *Worker) isComplete(doc *store.Document) bool {
	if w.index == nil {
		return doc.Status == store.StatusProcessed || doc.Status == store.StatusIndexed
	}
	return doc.Status == store.StatusIndexed
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("job failed", "phase", phase, "kind", ErrorKind(err), "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}

// ErrorKind classifies an error for callers that report failures by kind.
func ErrorKind(err error) string {
	var cfgErr *chunker.ConfigError
	var tokErr *chunker.TokenizationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &tokErr):
		return "tokenization"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case IsRetryable(err):
		return "unavailable"
	default:
		return "internal"
	}
}
