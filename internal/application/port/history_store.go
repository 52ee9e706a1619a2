package port

import "context"

// PublishedDocument describes one uploaded rendering of the history document
type PublishedDocument struct {
	Key         string
	URL         string
	ContentType string
	SizeBytes   int64
}

// HistoryStore defines the interface for publishing the rendered history
// document to object storage
type HistoryStore interface {
	// PutDocument uploads a rendered document and returns its read URL
	PutDocument(ctx context.Context, key, contentType string, body []byte) (string, error)

	// GetDocument downloads a previously published document
	GetDocument(ctx context.Context, key string) ([]byte, error)
}
