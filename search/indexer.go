package search

import "context"

// Indexer abstracts the index operations a run needs so the pipeline does not
// depend on a specific client.
type Indexer interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, mapping map[string]any) error
	BulkWrite(ctx context.Context, docs []BulkDocument) (*BulkResult, error)
}

var _ Indexer = (*Client)(nil)
