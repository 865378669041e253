// Package indexclient talks to the external vector index service that embeds
// and serves chunks. Records land in a namespace ("staging" by default) and
// are promoted to another namespace once a dataset is approved.
package indexclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxBatch is the most records sent in one upsert request.
const maxBatch = 100

// Client communicates with the index HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Record is one chunk as the index stores it.
type Record struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upsertRequest struct {
	DocID   string   `json:"doc_id"`
	Records []Record `json:"records"`
}

type upsertResponse struct {
	Upserted int `json:"upserted"`
}

// PromoteRequest is the body for POST /namespaces/{from}/promote.
type PromoteRequest struct {
	Target  string `json:"target"`
	Dataset string `json:"dataset,omitempty"`
}

// PromoteResponse reports how many records moved.
type PromoteResponse struct {
	Promoted int `json:"promoted"`
}

// RetryableError indicates a transient failure (429 or 5xx) that can be
// retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// UpsertChunks writes records for a document into namespace, in batches.
// It returns the number of records the index acknowledged.
func (c *Client) UpsertChunks(ctx context.Context, namespace, docID string, records []Record) (int, error) {
	total := 0
	for i := 0; i < len(records); i += maxBatch {
		end := min(i+maxBatch, len(records))
		var out upsertResponse
		err := c.do(ctx, http.MethodPost, c.nsURL(namespace, "records"),
			upsertRequest{DocID: docID, Records: records[i:end]}, &out)
		if err != nil {
			return total, fmt.Errorf("upsert %s batch %d: %w", docID, i/maxBatch, err)
		}
		total += out.Upserted
	}
	return total, nil
}

// DeleteDocument removes every record of a document from namespace. A
// document the index does not know is not an error.
func (c *Client) DeleteDocument(ctx context.Context, namespace, docID string) error {
	err := c.do(ctx, http.MethodDelete, c.nsURL(namespace, "documents", docID), nil, nil)
	if err != nil {
		return fmt.Errorf("delete %s: %w", docID, err)
	}
	return nil
}

// Promote copies a namespace's records, optionally limited to one dataset,
// into the target namespace.
func (c *Client) Promote(ctx context.Context, from string, req PromoteRequest) (*PromoteResponse, error) {
	var out PromoteResponse
	if err := c.do(ctx, http.MethodPost, c.nsURL(from, "promote"), req, &out); err != nil {
		return nil, fmt.Errorf("promote %s -> %s: %w", from, req.Target, err)
	}
	return &out, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) nsURL(namespace string, parts ...string) string {
	u := c.baseURL + "/namespaces/" + url.PathEscape(namespace)
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	case method == http.MethodDelete && resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(respBody), 1024))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
