package capability

import (
	"sync"
	"time"

	"github.com/plantcare-ai/plantcare-bot/internal/plantapi"
)

// Status is a snapshot of what the backend can currently do.
type Status struct {
	plantapi.Capabilities
	// Reachable is false when the last health check failed.
	Reachable bool
	// CheckedAt is zero until the first poll completed.
	CheckedAt time.Time
}

// Registry is the process-wide view of backend capabilities. It reports
// everything as available until the first poll says otherwise.
type Registry struct {
	mu     sync.RWMutex
	status Status
}

func NewRegistry() *Registry {
	return &Registry{status: Status{Capabilities: plantapi.AllAvailable(), Reachable: true}}
}

func (r *Registry) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Registry) ImageAnalysisAvailable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status.ImageAnalysisAvailable
}

// Update stores the result of a poll and reports whether image analysis
// availability changed.
func (r *Registry) Update(caps plantapi.Capabilities, reachable bool, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := r.status.ImageAnalysisAvailable != caps.ImageAnalysisAvailable
	r.status = Status{Capabilities: caps, Reachable: reachable, CheckedAt: at}
	return changed
}

// SetReachable records a failed or recovered health check without touching
// the last known capabilities.
func (r *Registry) SetReachable(reachable bool, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Reachable = reachable
	r.status.CheckedAt = at
}

// MarkImageAnalysisUnavailable downgrades image analysis until the next
// successful poll. Called when an analysis request is refused with 503.
func (r *Registry) MarkImageAnalysisUnavailable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.ImageAnalysisAvailable = false
}
