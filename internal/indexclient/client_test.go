package indexclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertChunksBatches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/namespaces/staging/records", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req upsertRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "doc-1", req.DocID)
		calls.Add(1)
		json.NewEncoder(w).Encode(upsertResponse{Upserted: len(req.Records)})
	}))
	defer srv.Close()

	records := make([]Record, 250)
	for i := range records {
		records[i] = Record{ID: fmt.Sprintf("r%d", i), Text: "text"}
	}

	c := NewClient(srv.URL, "secret")
	n, err := c.UpsertChunks(context.Background(), "staging", "doc-1", records)
	require.NoError(t, err)
	assert.Equal(t, 250, n)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryableStatuses(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", status)
		}))

		c := NewClient(srv.URL, "k")
		_, err := c.UpsertChunks(context.Background(), "staging", "d", []Record{{ID: "1"}})
		var retry *RetryableError
		require.True(t, errors.As(err, &retry), "status %d", status)
		assert.Equal(t, status, retry.StatusCode)
		srv.Close()
	}
}

func TestClientErrorNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	_, err := c.UpsertChunks(context.Background(), "staging", "d", []Record{{ID: "1"}})
	require.Error(t, err)
	var retry *RetryableError
	assert.False(t, errors.As(err, &retry))
}

func TestDeleteDocument(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if r.URL.Path == "/namespaces/staging/documents/gone" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	require.NoError(t, c.DeleteDocument(context.Background(), "staging", "doc-1"))
	assert.Equal(t, "/namespaces/staging/documents/doc-1", path)
	assert.NoError(t, c.DeleteDocument(context.Background(), "staging", "gone"))
}

func TestPromote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/namespaces/staging/promote", r.URL.Path)
		var req PromoteRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "production", req.Target)
		assert.Equal(t, "docs", req.Dataset)
		json.NewEncoder(w).Encode(PromoteResponse{Promoted: 7})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	resp, err := c.Promote(context.Background(), "staging", PromoteRequest{Target: "production", Dataset: "docs"})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Promoted)
}
