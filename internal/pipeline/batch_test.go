package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/dgallion1/docchunk/internal/indexclient"
)

// pickyTokenizer fails on any text containing "poison".
type pickyTokenizer struct{}

func (pickyTokenizer) Name() string { return "picky" }

func (p pickyTokenizer) Encode(text string) ([]int, error) {
	n, err := p.CountTokens(text)
	return make([]int, n), err
}

func (pickyTokenizer) CountTokens(text string) (int, error) {
	if strings.Contains(text, "poison") {
		return 0, errors.New("refusing to count")
	}
	return len(strings.Fields(text)), nil
}

func TestChunkBatchIsolatesFailures(t *testing.T) {
	c, err := chunker.New(pickyTokenizer{}, chunker.Budget{Target: 40, Min: 20, Max: 60})
	require.NoError(t, err)

	docs := []BatchDoc{
		{ID: "a", Text: "First document body.", Metadata: map[string]string{"url": "a"}},
		{ID: "b", Text: "This one carries poison."},
		{ID: "c", Text: "Third document body."},
	}
	stats := NewStats(time.Hour)
	results := ChunkBatch(context.Background(), c, docs, 2, stats)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].ID)
	require.Len(t, results[0].Chunks, 1)
	assert.Equal(t, "a", results[0].Chunks[0].Metadata["url"])
	assert.Empty(t, results[0].Error)

	assert.Equal(t, "b", results[1].ID)
	assert.Nil(t, results[1].Chunks)
	assert.Equal(t, "tokenization", results[1].ErrorKind)
	assert.Contains(t, results[1].Error, "picky")

	assert.Equal(t, "c", results[2].ID)
	require.Len(t, results[2].Chunks, 1)

	assert.Equal(t, 3, stats.Snapshot().Count)
}

func TestChunkBatchReportsBoundaryIssues(t *testing.T) {
	c := testChunker(t)
	results := ChunkBatch(context.Background(), c, []BatchDoc{{ID: "x", Text: "a sentence cut off mid"}}, 0, nil)
	require.Len(t, results, 1)
	require.Len(t, results[0].Issues, 2)
	assert.Equal(t, chunker.IssueLeadingFragment, results[0].Issues[0].Kind)
}

func TestChunkBatchCanceled(t *testing.T) {
	c := testChunker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := make([]BatchDoc, 5)
	for i := range docs {
		docs[i] = BatchDoc{ID: fmt.Sprint(i), Text: "Some text."}
	}
	for _, r := range ChunkBatch(ctx, c, docs, 1, nil) {
		assert.Equal(t, "canceled", r.ErrorKind)
	}
}

func TestWithRetry(t *testing.T) {
	noWait := func(int) time.Duration { return 0 }

	calls := 0
	err := withRetry(context.Background(), noWait, nil, func() error {
		calls++
		return &indexclient.RetryableError{StatusCode: 500}
	})
	assert.True(t, IsRetryable(err))
	assert.Equal(t, MaxRetries, calls)

	calls = 0
	var retried []int
	err = withRetry(context.Background(), noWait, func(attempt int, _ error) { retried = append(retried, attempt) }, func() error {
		calls++
		if calls < 2 {
			return &indexclient.RetryableError{StatusCode: 429}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{0}, retried)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = withRetry(ctx, func(int) time.Duration { return time.Hour }, nil, func() error {
		return &indexclient.RetryableError{StatusCode: 503}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffBounds(t *testing.T) {
	for attempt := range 8 {
		d := Backoff(attempt)
		base := min(time.Duration(1<<uint(attempt))*time.Second, 30*time.Second)
		assert.GreaterOrEqual(t, d, base)
		assert.Less(t, d, base+base/2+1)
	}
}
