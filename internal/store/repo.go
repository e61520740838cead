package store

import (
	"context"
	"time"
)

// QueryOpts configures journal queries with filtering and pagination.
type QueryOpts struct {
	Limit    int    // max results (0 = unlimited)
	After    int64  // sequence > After
	Before   int64  // sequence < Before
	RunID    string // exact run match
	Detector string // exact detector match
	Path     string // exact decision path match
}

// DetectionEventData captures one completed detection.
type DetectionEventData struct {
	RunID      string
	Detector   string
	Path       string
	Label      string
	Confidence float64
	Flag       bool
	LatencyUs  int64
	Reason     string
}

// DetectionEvent is a stored detection with its position in the journal.
type DetectionEvent struct {
	Sequence  int64
	Timestamp time.Time
	DetectionEventData
}

// BackendInitEventData captures the outcome of one backend initialization.
type BackendInitEventData struct {
	RunID        string
	Detector     string
	State        string
	ErrorMessage string
}

// BackendInitEvent is a stored initialization outcome.
type BackendInitEvent struct {
	Sequence  int64
	Timestamp time.Time
	BackendInitEventData
}

// DetectionStat aggregates detections for one detector and path.
type DetectionStat struct {
	Detector      string
	Path          string
	Count         int64
	Flagged       int64
	AvgConfidence float64
	AvgLatencyUs  float64
}

// EventRepo provides append and query access to journal events.
type EventRepo interface {
	// AppendDetection records a detection event.
	AppendDetection(ctx context.Context, data DetectionEventData) error

	// AppendBackendInit records a backend initialization outcome.
	AppendBackendInit(ctx context.Context, data BackendInitEventData) error

	// QueryDetections returns detections newest first.
	QueryDetections(ctx context.Context, opts QueryOpts) ([]DetectionEvent, error)

	// QueryBackendInits returns initialization outcomes newest first.
	QueryBackendInits(ctx context.Context, opts QueryOpts) ([]BackendInitEvent, error)

	// DetectionStats groups detections by detector and path.
	DetectionStats(ctx context.Context, opts QueryOpts) ([]DetectionStat, error)

	// Prune deletes all but the newest keep detections. It returns the
	// number of rows removed.
	Prune(ctx context.Context, keep int) (int64, error)
}
