package provision

import (
	"sync"
	"time"
)

// Status is the final disposition of one device.
type Status int

const (
	StatusSucceeded Status = iota
	StatusPartial
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}
	return "unknown"
}

// Outcome records what happened to one device.
type Outcome struct {
	Device          string
	Status          Status
	CommandsApplied int
	CommandsTotal   int
	Attempts        int
	Duration        time.Duration
	Err             error
	Transcript      string // raw device output, for post-mortems
}

// Report collects per-device outcomes for a run. Outcomes arrive from
// worker goroutines; reads are expected only after the run finishes.
type Report struct {
	mu       sync.Mutex
	order    []string
	outcomes map[string]*Outcome
}

func newReport(order []string) *Report {
	return &Report{
		order:    order,
		outcomes: make(map[string]*Outcome, len(order)),
	}
}

func (r *Report) set(o *Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[o.Device] = o
}

// Outcome returns the recorded outcome for a device.
func (r *Report) Outcome(device string) (*Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.outcomes[device]
	return o, ok
}

// Outcomes returns all outcomes in topology declaration order.
func (r *Report) Outcomes() []*Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Outcome, 0, len(r.order))
	for _, name := range r.order {
		if o, ok := r.outcomes[name]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Count returns how many devices finished with the given status.
func (r *Report) Count(s Status) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// AllSucceeded reports whether every device finished clean.
func (r *Report) AllSucceeded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.outcomes {
		if o.Status != StatusSucceeded {
			return false
		}
	}
	return true
}
