package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/doctree"
	"github.com/dgallion1/docchunk/internal/pipeline"
)

// budgetOverride lets a request change some budget limits; zero fields keep
// the server's value.
type budgetOverride struct {
	Target int `json:"target_tokens"`
	Min    int `json:"min_tokens"`
	Max    int `json:"max_tokens"`
}

type chunkRequest struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Budget   *budgetOverride   `json:"budget,omitempty"`
}

type chunkResponse struct {
	Chunks    []doctree.Chunk `json:"chunks"`
	Issues    []chunker.Issue `json:"issues"`
	Budget    chunker.Budget  `json:"budget"`
	Tokenizer string          `json:"tokenizer"`
}

type chunkBatchRequest struct {
	Documents []pipeline.BatchDoc `json:"documents"`
	Budget    *budgetOverride     `json:"budget,omitempty"`
}

func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req chunkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}

	c, err := s.chunkerFor(req.Budget)
	if err != nil {
		writeChunkError(w, err)
		return
	}

	chunks, err := c.Chunk(req.Text, req.Metadata)
	if err != nil {
		s.log.Warn("chunk request failed", "kind", pipeline.ErrorKind(err), "error", err)
		writeChunkError(w, err)
		return
	}
	if chunks == nil {
		chunks = []doctree.Chunk{}
	}
	issues := chunker.VerifyBoundaries(chunks)
	if issues == nil {
		issues = []chunker.Issue{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chunkResponse{
		Chunks:    chunks,
		Issues:    issues,
		Budget:    c.Budget(),
		Tokenizer: c.Tokenizer().Name(),
	})
}

func (s *Server) handleChunkBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10)

	var req chunkBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Documents) == 0 {
		jsonError(w, "at least one document is required", http.StatusBadRequest)
		return
	}

	var results []pipeline.BatchResult
	if req.Budget == nil {
		results = s.orchestrator.ChunkBatch(r.Context(), req.Documents)
	} else {
		c, err := s.chunkerFor(req.Budget)
		if err != nil {
			writeChunkError(w, err)
			return
		}
		results = pipeline.ChunkBatch(r.Context(), c, req.Documents, s.cfg.MaxConcurrentDocs, nil)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": results})
}

// chunkerFor returns the server's chunker, or one with the request's budget
// overrides applied.
func (s *Server) chunkerFor(o *budgetOverride) (*chunker.Chunker, error) {
	base := s.orchestrator.Chunker()
	if o == nil {
		return base, nil
	}
	b := base.Budget()
	if o.Target != 0 {
		b.Target = o.Target
	}
	if o.Min != 0 {
		b.Min = o.Min
	}
	if o.Max != 0 {
		b.Max = o.Max
	}
	return chunker.New(base.Tokenizer(), b)
}

// writeChunkError maps chunker errors to status codes: a bad budget is the
// caller's fault, untokenizable text is unprocessable.
func writeChunkError(w http.ResponseWriter, err error) {
	var cfgErr *chunker.ConfigError
	var tokErr *chunker.TokenizationError
	switch {
	case errors.As(err, &cfgErr):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &tokErr):
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
