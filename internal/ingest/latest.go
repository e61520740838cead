package ingest

import (
	"sort"
	"sync"
	"time"

	"github.com/lifeband/edgeai/internal/vitals"
)

// Latest keeps the most recent sample per device. Each sample is handed out
// by Drain at most once.
type Latest struct {
	mu      sync.Mutex
	samples map[string]entry
}

type entry struct {
	sample   vitals.Sample
	received time.Time
	taken    bool
}

// NewLatest returns an empty buffer.
func NewLatest() *Latest {
	return &Latest{samples: make(map[string]entry)}
}

// Put replaces the device's current sample.
func (l *Latest) Put(s vitals.Sample) {
	l.PutAt(s, time.Now())
}

// PutAt is Put with an explicit receive time.
func (l *Latest) PutAt(s vitals.Sample, received time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples[s.DeviceID] = entry{sample: s, received: received}
}

// Drain returns every sample not yet drained and received within maxAge of
// now, sorted by device id. maxAge <= 0 disables the age check.
func (l *Latest) Drain(now time.Time, maxAge time.Duration) []vitals.Sample {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []vitals.Sample
	for id, e := range l.samples {
		if e.taken {
			continue
		}
		if maxAge > 0 && now.Sub(e.received) > maxAge {
			continue
		}
		e.taken = true
		l.samples[id] = e
		out = append(out, e.sample)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

// Devices returns the number of devices seen.
func (l *Latest) Devices() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.samples)
}
