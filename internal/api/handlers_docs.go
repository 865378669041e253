package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/docchunk/internal/facts"
	"github.com/dgallion1/docchunk/internal/indexclient"
	"github.com/dgallion1/docchunk/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists registered documents, newest first.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	docs, err := s.docs.ListDocuments(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

func (s *Server) handleDocumentChunks(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	doc, ok := s.lookupDocument(w, r, docID)
	if !ok {
		return
	}
	chunks, err := s.docs.GetChunks(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to read chunks: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if chunks == nil {
		chunks = []store.StoredChunk{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document": doc,
		"chunks":   chunks,
	})
}

// handleDocumentFacts extracts statement cards from a stored document's
// chunks.
func (s *Server) handleDocumentFacts(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	limit := facts.DefaultMax
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "max must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	doc, ok := s.lookupDocument(w, r, docID)
	if !ok {
		return
	}
	chunks, err := s.docs.GetChunks(r.Context(), docID)
	if err != nil {
		jsonError(w, "failed to read chunks: "+err.Error(), http.StatusInternalServerError)
		return
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	found := facts.Extract(strings.Join(texts, "\n\n"), limit)
	cards := facts.Cards(found, map[string]string{"url": doc.URL, "title": doc.Title})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id": docID,
		"facts":  cards,
	})
}

// handleDeleteDocument removes a document and its chunks from the registry
// and, when indexing is enabled, from the index namespace.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	ctx := r.Context()

	if err := s.docs.DeleteDocument(ctx, docID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		jsonError(w, "failed to delete document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	indexDeleted := false
	if s.index != nil {
		if err := s.index.DeleteDocument(ctx, s.cfg.IndexNamespace, docID); err != nil {
			s.log.Error("index delete failed", "doc_id", docID, "error", err)
			jsonError(w, "document removed locally but index delete failed: "+err.Error(), http.StatusBadGateway)
			return
		}
		indexDeleted = true
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":        docID,
		"deleted":       true,
		"index_deleted": indexDeleted,
	})
}

type promoteRequest struct {
	From    string `json:"from"`
	Target  string `json:"target"`
	Dataset string `json:"dataset"`
}

// handlePromote copies indexed records from one namespace to another,
// typically staging to production.
func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		jsonError(w, "indexing is not configured", http.StatusServiceUnavailable)
		return
	}

	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Target == "" {
		jsonError(w, "target is required", http.StatusBadRequest)
		return
	}
	if req.From == "" {
		req.From = s.cfg.IndexNamespace
	}
	if req.From == req.Target {
		jsonError(w, "from and target must differ", http.StatusBadRequest)
		return
	}

	resp, err := s.index.Promote(r.Context(), req.From, indexclient.PromoteRequest{
		Target:  req.Target,
		Dataset: req.Dataset,
	})
	if err != nil {
		s.log.Error("promote failed", "from", req.From, "target", req.Target, "error", err)
		jsonError(w, "promote failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	s.log.Info("namespace promoted", "from", req.From, "target", req.Target, "promoted", resp.Promoted)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"from":     req.From,
		"target":   req.Target,
		"promoted": resp.Promoted,
	})
}

// lookupDocument writes a 404 or 500 and reports false when the document
// cannot be loaded.
func (s *Server) lookupDocument(w http.ResponseWriter, r *http.Request, id string) (*store.Document, bool) {
	doc, err := s.docs.GetDocument(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return doc, true
}
