package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	c := s.orchestrator.Chunker()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"chunking":         s.orchestrator.Stats(),
		"queue_depth":      s.orchestrator.QueueDepth(),
		"tracked_jobs":     s.orchestrator.TrackedJobs(),
		"budget":           c.Budget(),
		"tokenizer":        c.Tokenizer().Name(),
		"indexing_enabled": s.orchestrator.IndexingEnabled(),
	})
}
