package detect

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lifeband/edgeai/internal/store"
)

// Decision paths reported in events and status.
const (
	PathModel = "model"
	PathRules = "rules"
	PathGuard = "guard"
)

// Event describes one completed detection.
type Event struct {
	RunID      string
	Detector   string
	Path       string
	Label      string
	Confidence float64
	Flag       bool
	Latency    time.Duration

	// Reason is why the model path was not used. Nil on the model and
	// guard paths.
	Reason error
}

// DetectorStatus reports the lifecycle outcome of one detector's backend.
type DetectorStatus struct {
	Detector string `json:"detector"`
	State    string `json:"state"`
	Active   bool   `json:"active"`
	Path     string `json:"path"`
	Error    string `json:"error,omitempty"`
}

// Observer receives lifecycle and detection notifications. Implementations
// must not block; they are called synchronously from Detect.
type Observer interface {
	ObserveInit(ctx context.Context, runID string, s DetectorStatus)
	ObserveDetection(ctx context.Context, ev Event)
}

// journal records engine activity in the event store.
type journal struct {
	repo store.EventRepo
}

// JournalObserver returns an Observer that appends every event to repo.
// Write failures are reported on stderr and never affect the detection.
func JournalObserver(repo store.EventRepo) Observer {
	return &journal{repo: repo}
}

func (j *journal) ObserveInit(ctx context.Context, runID string, s DetectorStatus) {
	err := j.repo.AppendBackendInit(ctx, store.BackendInitEventData{
		RunID:        runID,
		Detector:     s.Detector,
		State:        s.State,
		ErrorMessage: s.Error,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to journal backend init: %v\n", err)
	}
}

func (j *journal) ObserveDetection(ctx context.Context, ev Event) {
	data := store.DetectionEventData{
		RunID:      ev.RunID,
		Detector:   ev.Detector,
		Path:       ev.Path,
		Label:      ev.Label,
		Confidence: ev.Confidence,
		Flag:       ev.Flag,
		LatencyUs:  ev.Latency.Microseconds(),
	}
	if ev.Reason != nil {
		data.Reason = ev.Reason.Error()
	}
	if err := j.repo.AppendDetection(ctx, data); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to journal detection: %v\n", err)
	}
}
