package pipeline

import "github.com/oklog/ulid/v2"

// NewJobID returns a time-ordered job id.
func NewJobID() string {
	return ulid.Make().String()
}

// NewDocID returns a time-ordered document id, prefixed so it is never
// confused with a job id in logs.
func NewDocID() string {
	return "doc_" + ulid.Make().String()
}
