package port

import (
	"context"
	"time"
)

// RunIndexRecord is the denormalized run entry kept in the listing index
type RunIndexRecord struct {
	RunID        string
	Suite        string
	CommitID     string
	CommitURL    string
	Tool         string
	BenchCount   int
	RecordedAt   time.Time
	LastModified time.Time
}

// RunListQuery defines the selection parameters for a run listing
type RunListQuery struct {
	Suite  string
	Limit  int
	Cursor string
	From   time.Time
	To     time.Time
}

// RunListPage contains one page of results and the cursor of the next page
type RunListPage struct {
	Items      []RunIndexRecord
	NextCursor string
}

// RunIndex defines the interface of the paginated run listing index
type RunIndex interface {
	Put(ctx context.Context, record RunIndexRecord) error
	ListBySuite(ctx context.Context, query RunListQuery) (RunListPage, error)
}
