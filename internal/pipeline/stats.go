package pipeline

import (
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/docchunk/internal/doctree"
)

// chunkRun is one document's pass through the chunker.
type chunkRun struct {
	at      time.Time
	elapsed time.Duration
	chunks  int
	tokens  int
	failed  bool
}

// StatsSnapshot summarizes the chunker runs still inside the window.
// Latency covers failed runs too; chunk and token totals only count
// successful ones.
type StatsSnapshot struct {
	Count          int     `json:"count"`
	Failed         int     `json:"failed"`
	Chunks         int     `json:"chunks"`
	Tokens         int     `json:"tokens"`
	AvgChunkTokens float64 `json:"avg_chunk_tokens"`
	MinMs          float64 `json:"min_ms"`
	MaxMs          float64 `json:"max_ms"`
	AvgMs          float64 `json:"avg_ms"`
	P50Ms          float64 `json:"p50_ms"`
	P95Ms          float64 `json:"p95_ms"`
	P99Ms          float64 `json:"p99_ms"`
}

// Stats keeps a rolling window of chunker runs. It is safe for concurrent
// use by workers and batch goroutines.
type Stats struct {
	mu     sync.Mutex
	runs   []chunkRun
	window time.Duration
	now    func() time.Time
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		runs:   make([]chunkRun, 0, 256),
		window: window,
		now:    time.Now,
	}
}

// Record adds the outcome of one Chunk or ChunkTree call. Negative
// durations count as zero.
func (s *Stats) Record(elapsed time.Duration, chunks []doctree.Chunk, err error) {
	run := chunkRun{elapsed: max(elapsed, 0), failed: err != nil}
	if err == nil {
		run.chunks = len(chunks)
		for _, c := range chunks {
			run.tokens += c.Tokens
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	run.at = s.now()
	s.expireLocked(run.at)
	s.runs = append(s.runs, run)
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked(s.now())
	if len(s.runs) == 0 {
		return StatsSnapshot{}
	}

	var snap StatsSnapshot
	ms := make([]float64, 0, len(s.runs))
	var total float64
	for _, r := range s.runs {
		v := float64(r.elapsed) / float64(time.Millisecond)
		ms = append(ms, v)
		total += v
		if r.failed {
			snap.Failed++
			continue
		}
		snap.Chunks += r.chunks
		snap.Tokens += r.tokens
	}
	slices.Sort(ms)

	snap.Count = len(ms)
	snap.MinMs, snap.MaxMs = ms[0], ms[len(ms)-1]
	snap.AvgMs = total / float64(len(ms))
	snap.P50Ms = quantile(ms, 0.50)
	snap.P95Ms = quantile(ms, 0.95)
	snap.P99Ms = quantile(ms, 0.99)
	if snap.Chunks > 0 {
		snap.AvgChunkTokens = float64(snap.Tokens) / float64(snap.Chunks)
	}
	return snap
}

// expireLocked drops runs older than the window. Runs are appended in time
// order, so the expired ones form a prefix.
func (s *Stats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.runs) && s.runs[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		s.runs = slices.Delete(s.runs, 0, i)
	}
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}
